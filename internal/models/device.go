package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Device is a detected media player. Detection may return bare mountpoint strings or objects.
type Device struct {
	Mountpoint string `json:"mountpoint"`
	Name       string `json:"name,omitempty"`
}

// UnmarshalJSON accepts "/mnt/ipod" or {"mountpoint"|"path": ..., "name": ...}.
func (d *Device) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Device{Mountpoint: s}
		return nil
	}

	var raw struct {
		Mountpoint string `json:"mountpoint"`
		Path       string `json:"path"`
		Name       string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	d.Mountpoint = raw.Mountpoint
	if d.Mountpoint == "" {
		d.Mountpoint = raw.Path
	}
	d.Name = raw.Name
	return nil
}

// Label is the text shown in the device picker.
func (d Device) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Mountpoint
}

// Connection is the connect/status response.
type Connection struct {
	Name       string `json:"name"`
	Mountpoint string `json:"mountpoint,omitempty"`
	Connected  bool   `json:"connected,omitempty"`
}

// Storage reports device capacity in gigabytes.
type Storage struct {
	UsedGB      float64 `json:"used_gb"`
	TotalGB     float64 `json:"total_gb"`
	PercentUsed float64 `json:"percent_used"`
}

// String renders "12.3 / 30.0 GB (41%)".
func (s Storage) String() string {
	return fmt.Sprintf("%.1f / %.1f GB (%.0f%%)", s.UsedGB, s.TotalGB, s.PercentUsed)
}

// DeviceInfo carries the hardware description of the connected player.
type DeviceInfo struct {
	GenerationString string `json:"generation_string"`
	ModelNumber      string `json:"model_number,omitempty"`
	Capacity         string `json:"capacity,omitempty"`
}

var generationTags = map[string]string{
	"First Generation":  "Classic 1G",
	"Second Generation": "Classic 2G",
	"Third Generation":  "Classic 3G",
	"Fourth Generation": "Classic 4G",

	"Video (First Generation)":    "Classic 5G",
	"Video (Second Generation)":   "Classic 5.5G",
	"Classic (First Generation)":  "Classic 6G",
	"Classic (Second Generation)": "Classic 6.5G",
	"Classic (Third Generation)":  "Classic 7G",

	"Mini (First Generation)":  "Mini 1G",
	"Mini (Second Generation)": "Mini 2G",

	"Shuffle (First Generation)":  "Shuffle 1G",
	"Shuffle (Second Generation)": "Shuffle 2G",
	"Shuffle (Third Generation)":  "Shuffle 3G",
	"Shuffle (Fourth Generation)": "Shuffle 4G",

	"Nano (First Generation)":   "Nano 1G",
	"Nano (Second Generation)":  "Nano 2G",
	"Nano (Third Generation)":   "Nano 3G",
	"Nano (Fourth Generation)":  "Nano 4G",
	"Nano (Fifth Generation)":   "Nano 5G",
	"Nano (Sixth Generation)":   "Nano 6G",
	"Nano (Seventh Generation)": "Nano 7G",

	"Touch (First Generation)":   "Touch 1G",
	"Touch (Second Generation)":  "Touch 2G",
	"Touch (Third Generation)":   "Touch 3G",
	"Touch (Fourth Generation)":  "Touch 4G",
	"Touch (Fifth Generation)":   "Touch 5G",
	"Touch (Sixth Generation)":   "Touch 6G",
	"Touch (Seventh Generation)": "Touch 7G",
}

// GenerationTag shortens the generation string ("Nano (Third Generation)" -> "Nano 3G").
// Unknown generations yield "".
func (i DeviceInfo) GenerationTag() string {
	return generationTags[i.GenerationString]
}
