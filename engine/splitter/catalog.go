package splitter

// TypeInfo describes one strategy in the catalogue.
type TypeInfo struct {
	Type        Type   `json:"type"`
	Description string `json:"description"`
}

// Recommendation is a suggested configuration for a family of formats.
type Recommendation struct {
	Format string `json:"format"`
	Config Config `json:"config"`
}

// CatalogInfo lists the available strategies, length functions and defaults.
type CatalogInfo struct {
	SplitterTypes     []TypeInfo       `json:"splitter_types"`
	LengthFunctions   []LengthFunction `json:"length_functions"`
	DefaultSeparators []string         `json:"default_separators"`
	Defaults          Config           `json:"defaults"`
	Recommendations   []Recommendation `json:"recommendations"`
}

func Catalog() CatalogInfo {
	recommend := func(format string, size, overlap int, mutate func(*Config)) Recommendation {
		cfg := DefaultConfig()
		cfg.ChunkSize, cfg.ChunkOverlap = size, overlap
		if mutate != nil {
			mutate(&cfg)
		}
		return Recommendation{Format: format, Config: cfg}
	}
	return CatalogInfo{
		SplitterTypes: []TypeInfo{
			{Type: TypeRecursive, Description: "Splits on the first separator present and recurses into finer separators"},
			{Type: TypeCharacter, Description: "Splits on a single separator and force-splits oversized pieces"},
			{Type: TypeToken, Description: "Emits fixed windows of tokens from the reference tokenizer"},
		},
		LengthFunctions:   []LengthFunction{LengthCharacters, LengthTokens},
		DefaultSeparators: DefaultSeparators(),
		Defaults:          DefaultConfig(),
		Recommendations: []Recommendation{
			recommend("pdf", 1000, 200, nil),
			recommend("docx", 800, 150, nil),
			recommend("txt", 1200, 200, nil),
			recommend("csv", 2000, 100, func(c *Config) {
				c.SplitterType = TypeCharacter
				c.Separators = []string{"\n"}
			}),
			recommend("html", 1500, 300, nil),
			recommend("code", 800, 100, func(c *Config) {
				c.Separators = []string{"\n\n", "\n", " ", ""}
			}),
		},
	}
}
