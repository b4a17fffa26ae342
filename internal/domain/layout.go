package domain

// CodeMap translates CRM enumeration codes to display labels.
// It is copied on construction and never mutated afterwards.
type CodeMap struct{ labels map[string]string }

func NewCodeMap(src map[string]string) CodeMap {
	labels := make(map[string]string, len(src))
	for k, v := range src {
		labels[k] = v
	}
	return CodeMap{labels: labels}
}

// Resolve returns the label for code, or code itself when it is unmapped.
func (c CodeMap) Resolve(code string) string {
	if v, ok := c.labels[code]; ok {
		return v
	}
	return code
}

func (c CodeMap) Len() int { return len(c.labels) }

// Fields holds the installation-specific custom field keys (ufCrm<N>_<ts>).
type Fields struct {
	Price       string
	Type        string
	Status      string
	Area        string
	Address     string
	Photos      string
	Description string
}

type FieldLayout struct {
	EntityTypeID int
	Fields       Fields
	Types        CodeMap
	Statuses     CodeMap
}

func DefaultLayout() FieldLayout {
	return FieldLayout{
		EntityTypeID: 1138,
		Fields: Fields{
			Price:       "ufCrm41_1756408197",
			Type:        "ufCrm41_1756408282",
			Status:      "ufCrm41_1756408436",
			Area:        "ufCrm41_1756408321",
			Address:     "ufCrm41_1756408382",
			Photos:      "ufCrm41_1756408463",
			Description: "ufCrm41_1756408548",
		},
		Types: NewCodeMap(map[string]string{
			"2845": "STUDIO",
			"2847": "1 DORM",
			"2849": "2 DORM",
		}),
		Statuses: NewCodeMap(map[string]string{
			"2851": "EM OBRA",
			"2853": "CONSTRUIDO",
			"2855": "Disponível",
			"2857": "Indisponivel",
		}),
	}
}
