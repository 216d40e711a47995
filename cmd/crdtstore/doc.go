package main

import (
	"fmt"

	"github.com/cshekharsharma/crdtstore/crdtstore"
	"github.com/cshekharsharma/crdtstore/store"
	"github.com/google/uuid"
)

// openDocument opens (creating if absent) the document named by docIDStr
// under the --data-dir flag.
func openDocument(docIDStr string) (*crdtstore.Document, error) {
	docID, err := uuid.Parse(docIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid doc-id %q: %w", docIDStr, err)
	}
	return crdtstore.Open(dataDirFlag, docID, store.Options{})
}
