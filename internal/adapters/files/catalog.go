package files

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

type catalogFile struct {
	Items []catalogEntry `yaml:"items" validate:"dive"`
}

type catalogEntry struct {
	ItemID   uint32 `yaml:"item_id" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Class    string `yaml:"class" validate:"required,oneof=MINER BOTANIST FISHER"`
	NodeTier int    `yaml:"node_tier" validate:"gte=0"`
	Zone     string `yaml:"zone"`
	Timed    *struct {
		StartHour     int `yaml:"start_hour" validate:"gte=0,lte=23"`
		DurationHours int `yaml:"duration_hours" validate:"gt=0,lte=24"`
	} `yaml:"timed"`
}

// LoadCatalog reads the item catalog seed file
func LoadCatalog(path string) ([]domain.ItemInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a catalog document. Duplicate ids are rejected.
func ParseCatalog(data []byte) ([]domain.ItemInfo, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid catalog file: %w", err)
	}

	seen := make(map[uint32]bool, len(file.Items))
	items := make([]domain.ItemInfo, 0, len(file.Items))
	for _, e := range file.Items {
		if seen[e.ItemID] {
			return nil, fmt.Errorf("invalid catalog file: duplicate item_id %d", e.ItemID)
		}
		seen[e.ItemID] = true

		item := domain.ItemInfo{
			ItemID:   e.ItemID,
			Name:     e.Name,
			Class:    domain.GatherClass(e.Class),
			NodeTier: e.NodeTier,
			Zone:     e.Zone,
		}
		if e.Timed != nil {
			item.Timed = &domain.TimedWindow{
				StartHour: e.Timed.StartHour,
				Duration:  time.Duration(e.Timed.DurationHours) * time.Hour,
			}
		}
		items = append(items, item)
	}
	return items, nil
}
