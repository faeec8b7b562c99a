// Command genops regenerates the persisted operations manifest from the
// canonical operation documents. Run it whenever an operation is added
// or renamed.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"murmur/internal/gateway"
)

var documents = []string{
	"query currentUser",
	"query userByUsername",
	"query messagesFromCursor",
	"query notesFromCursor",
	"query myNote",
	"mutation sendMessage",
	"mutation deleteMessage",
	"mutation saveNote",
	"mutation deleteNote",
	"mutation updateProfile",
}

func main() {
	out := flag.String("out", "persisted-operations.json", "manifest output path")
	flag.Parse()

	manifest := make(map[string]string, len(documents))
	for _, doc := range documents {
		manifest[gateway.HashDocument(doc)] = doc
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		log.Fatalf("Marshal manifest: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("Write manifest: %v", err)
	}
	log.Printf("Wrote %d persisted operations to %s", len(manifest), *out)
}
