package source

import "fmt"

// FormatError means a container's internal structure matches no known layout:
// no data-bearing file inside the archive, or an unreadable archive. The
// container is skipped and logged; the batch continues.
type FormatError struct {
	Container string
	Reason    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error in %s: %s", e.Container, e.Reason)
}

// SchemaError means the expected header markers or columns were not found
// within the bounded scan. The container is skipped and logged.
type SchemaError struct {
	Container string
	Reason    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Container, e.Reason)
}
