package state

import (
	"sketchbluff-be/internal/config"
	"sketchbluff-be/internal/service"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
	}
}

// Close 释放应用持有的后台资源
func (s *AppState) Close() {
	s.RoomSvc.Close()
}
