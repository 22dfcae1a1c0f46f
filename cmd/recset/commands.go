package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/maruel/recset/internal/record"
	"github.com/maruel/recset/internal/recordset"
)

// convert rewrites src as dst.
func convert(src, dst string, cfg recordset.Config) error {
	c, err := recordset.Load[*record.Row](src, cfg)
	if err != nil {
		return err
	}
	return c.Encode(dst)
}

// inspect prints a summary of the datasource at path.
func inspect(w io.Writer, path string, cfg recordset.Config, schema bool) error {
	h, err := recordset.LoadHashed[*record.Row](path, cfg)
	if err != nil {
		return err
	}
	if schema {
		b, err := json.MarshalIndent(h.Schema().JSONSchema(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	unique := len(h.Hashes())
	_, err = fmt.Fprintf(w, "datasource: %s\nrecords:    %d\nunique:     %d\nduplicates: %d\nnext id:    %s\ncolumns:    %s\n",
		h.Datasource(), h.Len(), unique, h.Len()-unique, h.NextID(), strings.Join(h.Columns(), ", "))
	return err
}
