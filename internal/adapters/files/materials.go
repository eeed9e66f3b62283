package files

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// MaterialsFile is a resolved material list on disk:
//
//	buffer: 2
//	optimize: true
//	materials:
//	  - item_id: 5
//	    item_name: Copper Ore
//	    remaining: 12
type MaterialsFile struct {
	Buffer          int               `yaml:"buffer" validate:"gte=0"`
	Optimize        bool              `yaml:"optimize"`
	PrioritizeTimed bool              `yaml:"prioritize_timed"`
	Materials       []domain.Material `yaml:"materials" validate:"required,min=1,dive"`
}

// LoadMaterials reads and validates a materials file
func LoadMaterials(path string) (*MaterialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read materials file: %w", err)
	}
	return ParseMaterials(data)
}

// ParseMaterials decodes a materials document
func ParseMaterials(data []byte) (*MaterialsFile, error) {
	var file MaterialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse materials file: %w", err)
	}
	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid materials file: %w", err)
	}
	return &file, nil
}
