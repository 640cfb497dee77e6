package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Export writes events to w in the requested format
func Export(w io.Writer, events []*AuditEvent, format ExportFormat) error {
	switch format {
	case ExportFormatJSON, "":
		return exportJSON(w, events)
	case ExportFormatNDJSON:
		return exportNDJSON(w, events)
	case ExportFormatCSV:
		return exportCSV(w, events)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// exportJSON exports audit events as JSON array
func exportJSON(w io.Writer, events []*AuditEvent) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}

// exportNDJSON exports audit events as newline-delimited JSON
func exportNDJSON(w io.Writer, events []*AuditEvent) error {
	encoder := json.NewEncoder(w)
	for _, event := range events {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

// exportCSV exports audit events as CSV, with the details body flattened
func exportCSV(w io.Writer, events []*AuditEvent) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Timestamp", "ActionType", "ActingUserID", "ActingUsername", "TargetChannelID", "Details"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, event := range events {
		row := []string{
			strconv.FormatInt(event.ID, 10),
			event.Timestamp.Format("2006-01-02 15:04:05"),
			string(event.ActionType),
			strconv.FormatInt(event.ActingUserID, 10),
			event.ActingUsername,
			formatInt64Ptr(event.TargetChannelID),
			strings.ReplaceAll(event.Details, "\n", "; "),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// formatInt64Ptr formats an int64 pointer as string, returning empty string for nil
func formatInt64Ptr(val *int64) string {
	if val == nil {
		return ""
	}
	return strconv.FormatInt(*val, 10)
}
