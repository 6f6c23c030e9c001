package gdocai

import (
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
)

// ToJSON renders a Document AI response as indented JSON.
func ToJSON(doc *documentaipb.Document) ([]byte, error) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// LoadJSON parses a Document AI response saved as JSON. Fields unknown to
// this version of the API are ignored.
func LoadJSON(data []byte) (*documentaipb.Document, error) {
	doc := &documentaipb.Document{}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// ReadFile loads a Document AI response from a JSON file.
func ReadFile(path string) (*documentaipb.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadJSON(data)
}

// PageImage returns the rendered image Document AI attached to a page and
// its MIME type.
func PageImage(page *documentaipb.Document_Page) ([]byte, string, error) {
	if page == nil {
		return nil, "", errors.New("no documentai page provided")
	}
	image := page.GetImage()
	if image == nil {
		return nil, "", errors.New("no image found in documentai page")
	}
	if len(image.GetContent()) == 0 {
		return nil, "", errors.New("image content is empty")
	}
	return image.GetContent(), image.GetMimeType(), nil
}
