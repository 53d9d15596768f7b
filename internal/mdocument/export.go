package mdocument

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

const exportIndexName = "index.csv"

var exportIndexHeader = []string{
	"id", "clubId", "clubName", "title", "type", "priority", "status", "dueDate", "isOverdue", "assignedMembers", "file",
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	if s == "" {
		return "document"
	}
	return s
}

func exportFileName(d Document) string {
	return fmt.Sprintf("documents/%d-%s.json", d.ID, slug(d.Title))
}

// ExportFileName is the attachment name of a club export.
func ExportFileName(clubID int64, now time.Time) string {
	return fmt.Sprintf("club-%d-documents-%s.zip", clubID, now.UTC().Format("20060102-150405"))
}

// WriteExport streams a zip holding one JSON file per document and a CSV
// index of all of them.
func WriteExport(w io.Writer, docs []Document) error {
	zw := zip.NewWriter(w)

	for _, d := range docs {
		f, err := zw.Create(exportFileName(d))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode document %d: %w", d.ID, err)
		}
	}

	f, err := zw.Create(exportIndexName)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(exportIndexHeader); err != nil {
		return err
	}
	for _, d := range docs {
		users := make([]string, 0, len(d.AssignedMembers))
		for _, m := range d.AssignedMembers {
			users = append(users, m.UserID+":"+string(m.SubmissionStatus))
		}
		if err := cw.Write([]string{
			strconv.FormatInt(d.ID, 10),
			strconv.FormatInt(d.ClubID, 10),
			d.ClubName,
			d.Title,
			string(d.Type),
			string(d.Priority),
			string(d.Status),
			schedule.FormatSQL(d.DueDate.Time),
			strconv.FormatBool(d.IsOverdue),
			strings.Join(users, ";"),
			exportFileName(d),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	return zw.Close()
}
