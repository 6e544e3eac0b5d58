package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributech-backend/internal/models"
)

func TestRunBatchIsolatesFailures(t *testing.T) {
	marked := map[string]string{}

	resp := runBatch([]string{"imp-1", "imp-2", "imp-3"},
		func(importID string) (*models.BatchItemResult, error) {
			if importID == "imp-2" {
				return nil, fmt.Errorf("parse failed: unexpected EOF")
			}
			return &models.BatchItemResult{ImportID: importID, DocumentType: models.DocTypeNFe}, nil
		},
		func(importID string, cause error) {
			marked[importID] = cause.Error()
		})

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, 1, resp.Errors)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "imp-1", resp.Results[0].ImportID)
	assert.Equal(t, "imp-3", resp.Results[1].ImportID)

	require.Len(t, resp.ErrorDetails, 1)
	assert.Equal(t, "imp-2", resp.ErrorDetails[0].ImportID)
	assert.Equal(t, "parse failed: unexpected EOF", resp.ErrorDetails[0].Error)

	// Only the failed import gets flipped to ERROR.
	assert.Equal(t, map[string]string{"imp-2": "parse failed: unexpected EOF"}, marked)
}

func TestRunBatchAllSucceed(t *testing.T) {
	resp := runBatch([]string{"imp-1", "imp-2"},
		func(importID string) (*models.BatchItemResult, error) {
			return &models.BatchItemResult{ImportID: importID}, nil
		},
		func(importID string, cause error) {
			t.Fatalf("onError called for %s: %v", importID, cause)
		})

	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, 0, resp.Errors)
	assert.Empty(t, resp.ErrorDetails)
}

func TestRunBatchEmptyManifest(t *testing.T) {
	resp := runBatch(nil,
		func(importID string) (*models.BatchItemResult, error) { return nil, nil },
		func(importID string, cause error) {})

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Processed)
	assert.NotNil(t, resp.Results)
	assert.NotNil(t, resp.ErrorDetails)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "nota_fiscal.xml", sanitizeFilename("../uploads/nota fiscal.xml"))
	assert.Equal(t, "doc.xml", sanitizeFilename("/tmp/doc.xml"))
}
