package http

import (
	"fmt"
	"net/url"
	"strings"

	"sketchbluff-be/internal/service/dto"
	"sketchbluff-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	maxRoomIDLen = 64
	qrCodeSize   = 320
)

func Health(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		rooms, conns := appState.RoomSvc.Stats()

		ctx.JSON(dto.HealthResponse{
			Status:      "ok",
			Rooms:       rooms,
			Connections: conns,
		})
	}
}

// CreateRoom 分配一个未被占用的房间号，房间在第一个玩家加入时才真正创建
func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.CreateRoomResponse{
			RoomID: appState.RoomSvc.NewRoomID(),
		})
	}
}

func RandomRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var resp dto.RandomRoomResponse
		if roomID := appState.RoomSvc.RandomRoom(); roomID != "" {
			resp.RoomID = &roomID
		}

		ctx.JSON(resp)
	}
}

func RoomMembers(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("id")

		members, ok := appState.RoomSvc.RoomMembers(roomID)
		if !ok {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(dto.ErrorResponse{Message: "房间不存在"})
			return
		}

		ctx.JSON(dto.RoomMembersResponse{
			RoomID:  roomID,
			Members: dto.FromMembers(members),
		})
	}
}

// RoomQRCode 生成房间邀请链接的二维码（PNG）
func RoomQRCode(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("id")
		if roomID == "" || len(roomID) > maxRoomIDLen {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(dto.ErrorResponse{Message: "房间号无效"})
			return
		}

		link := roomLink(appState.Cfg.PublicURL, ctx, roomID)

		png, err := qrcode.Encode(link, qrcode.Medium, qrCodeSize)
		if err != nil {
			zap.L().Error(
				"生成二维码失败",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(dto.ErrorResponse{Message: "生成二维码失败"})
			return
		}

		ctx.ContentType("image/png")
		ctx.Header("Cache-Control", "no-store")
		ctx.Write(png)
	}
}

// roomLink 拼接房间邀请链接；未配置 public_url 时使用请求的 Host
func roomLink(publicURL string, ctx iris.Context, roomID string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if ctx.Request().TLS != nil {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/room", scheme, ctx.Host())
	}

	return base + "/" + url.PathEscape(roomID)
}
