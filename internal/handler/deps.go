package handler

import (
	"dancefloor/internal/app/presence"
	"dancefloor/internal/configs"
)

// AppDeps carries the long-lived objects every handler needs.
type AppDeps struct {
	Floor  *presence.Floor
	Config *configs.AppConfig
}
