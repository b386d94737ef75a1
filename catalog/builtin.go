package catalog

// builtinRecords is the hardcoded knowledge base table.
// Order matters: it is the order of Describe and of the "all" selection.
var builtinRecords = [...]Record{
	{
		ID:         "8be6dfd9-ecaf-4e2b-8414-01aecb67e147",
		Name:       "Blossom Analysis",
		IconRef:    "images/logos/blossom_analysis.jpg",
		BrandColor: "#FFFFFF",
		OrgURL:     "https://blossomanalysis.com",
	},
	{
		ID:         "f73bbef9-ea3b-4f78-956d-b5fc38de7699",
		Name:       "Lucid News",
		IconRef:    "images/logos/lucid_news.jpg",
		BrandColor: "#2712BD",
		OrgURL:     "https://lucidnews.com",
	},
	{
		ID:         "f88d9d45-f25e-4051-8a84-a8d7873622b8",
		Name:       "MAPS",
		IconRef:    "images/logos/maps.jpg",
		BrandColor: "#2712BD",
		OrgURL:     "https://maps.org",
	},
	{
		ID:         "5f6e1ea5-1f3f-431a-8759-b66810582b73",
		Name:       "Psychedelic Alpha",
		IconRef:    "images/logos/psychedelic_alpha.jpg",
		BrandColor: "#CFC9E5",
		OrgURL:     "https://psychedelicalpha.com",
	},
	{
		ID:         "c34bc3da-d466-4a2d-94c3-2e6fffbe6d1d",
		Name:       "Psychedelics Today",
		IconRef:    "images/logos/psychedelics_today.jpg",
		BrandColor: "#FFFFFF",
		OrgURL:     "https://psychedelictoday.com",
	},
}

// Builtin returns a fresh copy of the built-in records.
func Builtin() []Record {
	records := make([]Record, len(builtinRecords))
	copy(records, builtinRecords[:])
	return records
}
