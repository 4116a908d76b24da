package dto

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// 没有可加入的房间时 RoomID 为 null
type RandomRoomResponse struct {
	RoomID *string `json:"roomId"`
}

type RoomMembersResponse struct {
	RoomID  string   `json:"roomId"`
	Members []Member `json:"members"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
