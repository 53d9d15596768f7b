package mdocument

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

func TestWriteExport(t *testing.T) {
	due, err := schedule.ParseDateTime("2025-11-20 18:00:00")
	require.NoError(t, err)

	docs := []Document{
		{
			ID: 7, ClubID: 2, ClubName: "Robotics", Title: "Q4 Budget, final!",
			Type: TypeBudget, Priority: PriorityHigh, Status: schedule.DocumentInProgress,
			DueDate:         schedule.NewTimestamp(due),
			AssignedMembers: []AssignedMember{{UserID: "olga", SubmissionStatus: Submitted}, {UserID: "petros", SubmissionStatus: NotSubmitted}},
		},
		{ID: 9, ClubID: 2, ClubName: "Robotics", Title: "", Status: schedule.DocumentOpen},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, docs))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = b
	}
	require.Contains(t, files, "documents/7-q4-budget-final.json")
	require.Contains(t, files, "documents/9-document.json")
	require.Contains(t, files, exportIndexName)

	var got Document
	require.NoError(t, json.Unmarshal(files["documents/7-q4-budget-final.json"], &got))
	assert.Equal(t, "Q4 Budget, final!", got.Title)
	assert.Len(t, got.AssignedMembers, 2)
	assert.True(t, got.DueDate.Equal(due))

	records, err := csv.NewReader(bytes.NewReader(files[exportIndexName])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportIndexHeader, records[0])
	assert.Equal(t, []string{
		"7", "2", "Robotics", "Q4 Budget, final!", "Budget", "High", "In Progress",
		"2025-11-20 18:00:00", "false", "olga:Submitted;petros:Not Submitted", "documents/7-q4-budget-final.json",
	}, records[1])
	assert.Equal(t, "", records[2][7])
}

func TestWriteExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, nil))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, exportIndexName, zr.File[0].Name)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "meeting-minutes-2025", slug("  Meeting Minutes (2025) "))
	assert.Equal(t, "document", slug("!!!"))
	assert.LessOrEqual(t, len(slug(string(bytes.Repeat([]byte("ab "), 50)))), 60)
}
