package ingest

import "github.com/hyperjump/annai/internal/models"

// fallbackSource marks built-in passages in chunk provenance.
const fallbackSource = "Internal"

// fallbackDocuments is the built-in corpus used when the knowledge base
// directory is empty or missing, so the index is never empty and the
// assistant stays usable without external content.
func fallbackDocuments() []models.Document {
	return []models.Document{
		{
			Source:  fallbackSource,
			Content: "Data Science includes roles like Data Analyst, ML Engineer, and Research Scientist.",
		},
		{
			Source:  fallbackSource,
			Content: "Software Engineering requires mastery of algorithms, systems design, and version control.",
		},
	}
}
