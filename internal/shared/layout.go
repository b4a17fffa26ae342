package shared

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"listings_portal/internal/domain"
)

// layoutFile mirrors the YAML describing one CRM installation:
//
//	entity_type_id: 1138
//	fields:
//	  price: ufCrm41_1756408197
//	  ...
//	types:    {"2845": STUDIO}
//	statuses: {"2855": Disponível}
//
// Keys left out keep their defaults.
type layoutFile struct {
	EntityTypeID int `yaml:"entity_type_id"`
	Fields       struct {
		Price       string `yaml:"price"`
		Type        string `yaml:"type"`
		Status      string `yaml:"status"`
		Area        string `yaml:"area"`
		Address     string `yaml:"address"`
		Photos      string `yaml:"photos"`
		Description string `yaml:"description"`
	} `yaml:"fields"`
	Types    map[string]string `yaml:"types"`
	Statuses map[string]string `yaml:"statuses"`
}

func LoadLayout(path string) (domain.FieldLayout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.FieldLayout{}, &domain.ConfigurationError{Key: "CRM_LAYOUT_FILE", Reason: err.Error()}
	}
	return ParseLayout(b)
}

func ParseLayout(b []byte) (domain.FieldLayout, error) {
	var f layoutFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return domain.FieldLayout{}, &domain.ConfigurationError{Key: "CRM_LAYOUT_FILE", Reason: fmt.Sprintf("parse: %v", err)}
	}

	l := domain.DefaultLayout()
	if f.EntityTypeID < 0 {
		return domain.FieldLayout{}, &domain.ConfigurationError{Key: "CRM_LAYOUT_FILE", Reason: "entity_type_id must be positive"}
	}
	if f.EntityTypeID > 0 {
		l.EntityTypeID = f.EntityTypeID
	}
	override(&l.Fields.Price, f.Fields.Price)
	override(&l.Fields.Type, f.Fields.Type)
	override(&l.Fields.Status, f.Fields.Status)
	override(&l.Fields.Area, f.Fields.Area)
	override(&l.Fields.Address, f.Fields.Address)
	override(&l.Fields.Photos, f.Fields.Photos)
	override(&l.Fields.Description, f.Fields.Description)
	if f.Types != nil {
		l.Types = domain.NewCodeMap(f.Types)
	}
	if f.Statuses != nil {
		l.Statuses = domain.NewCodeMap(f.Statuses)
	}
	return l, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
