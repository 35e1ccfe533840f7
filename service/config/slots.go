package config

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/khaledhikmat/ps-go/model"
)

// SlotsConfig is the static slot layout of one camera. FrameWidth and FrameHeight
// describe the reference frame the rectangles were drawn on; zero skips the
// frame-bounds check.
type SlotsConfig struct {
	FrameWidth     int             `yaml:"frameWidth"`
	FrameHeight    int             `yaml:"frameHeight"`
	VehicleClasses []string        `yaml:"vehicleClasses"`
	IgnoredClasses []string        `yaml:"ignoredClasses"`
	Slots          []model.SlotROI `yaml:"slots"`
}

// DefaultSlots is the layout produced by the calibration tool for the reference lot.
func DefaultSlots() SlotsConfig {
	return SlotsConfig{
		VehicleClasses: []string{"car", "bus", "motorbike", "truck"},
		IgnoredClasses: []string{"person"},
		Slots: []model.SlotROI{
			{Name: "Slot1", X: 213, Y: 205, Width: 721, Height: 343},
			{Name: "Slot2", X: 221, Y: 579, Width: 712, Height: 384},
			{Name: "Slot3", X: 210, Y: 991, Width: 722, Height: 387},
			{Name: "Slot4", X: 1833, Y: 203, Width: 742, Height: 351},
			{Name: "Slot5", X: 1833, Y: 576, Width: 744, Height: 390},
			{Name: "Slot6", X: 1835, Y: 995, Width: 742, Height: 373},
		},
	}
}

// LoadSlots reads the slot layout from a YAML file. A missing file yields the
// default layout. Omitted class lists fall back to the defaults.
func LoadSlots(path string) (SlotsConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultSlots()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return SlotsConfig{}, fmt.Errorf("reading slots file %s: %w", path, err)
	}

	var cfg SlotsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SlotsConfig{}, fmt.Errorf("parsing slots file %s: %w", path, err)
	}

	defaults := DefaultSlots()
	if len(cfg.VehicleClasses) == 0 {
		cfg.VehicleClasses = defaults.VehicleClasses
	}
	if cfg.IgnoredClasses == nil {
		cfg.IgnoredClasses = defaults.IgnoredClasses
	}

	return cfg, cfg.Validate()
}

// Save writes the layout as YAML.
func (c SlotsConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c SlotsConfig) Validate() error {
	if len(c.Slots) == 0 {
		return errors.New("no slots configured")
	}

	frame := image.Rect(0, 0, c.FrameWidth, c.FrameHeight)
	seen := map[string]bool{}
	for _, slot := range c.Slots {
		if slot.Name == "" {
			return errors.New("slot with empty name")
		}
		if seen[slot.Name] {
			return fmt.Errorf("duplicate slot %s", slot.Name)
		}
		seen[slot.Name] = true

		if slot.Width <= 0 || slot.Height <= 0 {
			return fmt.Errorf("slot %s: width and height must be positive", slot.Name)
		}
		if slot.X < 0 || slot.Y < 0 {
			return fmt.Errorf("slot %s: origin must not be negative", slot.Name)
		}
		if c.FrameWidth > 0 && c.FrameHeight > 0 && !slot.Rect().Overlaps(frame) {
			return fmt.Errorf("slot %s: outside the %dx%d reference frame", slot.Name, c.FrameWidth, c.FrameHeight)
		}
	}

	return nil
}
