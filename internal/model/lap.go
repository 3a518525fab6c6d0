package model

import (
	"time"
)

// Lap is one recorded lap time
type Lap struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PlayerName  string    `json:"player_name" gorm:"column:player_name;type:varchar(24);not null"`
	VehicleCode string    `json:"vehicle_code" gorm:"column:vehicle_code;type:varchar(6);not null;index:idx_laps_track_vehicle"`
	TrackCode   string    `json:"track_code" gorm:"column:track_code;type:varchar(6);not null;index:idx_laps_track_vehicle;index:idx_laps_track_time"`
	TimeMs      uint32    `json:"time_ms" gorm:"column:time_ms;not null;index:idx_laps_track_time"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:now()"`
}

func (Lap) TableName() string {
	return "laps"
}

// VehicleMod caches the display name of a vehicle mod
type VehicleMod struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(6)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at;not null"`
}

func (VehicleMod) TableName() string {
	return "vehicle_mods"
}

// All returns every model for auto migration
func All() []interface{} {
	return []interface{}{
		&Lap{},
		&VehicleMod{},
	}
}
