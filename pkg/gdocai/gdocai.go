// Package gdocai integrates Google Document AI as a glyph geometry source.
//
// Documents are sent to a Document AI OCR processor (Process) or loaded from
// saved JSON responses (LoadJSON), then converted to the hOCR model (ToHOCR)
// so they can be served to coordinate maps through an hocr.Source. Page
// images returned by the processor can be used as page backgrounds.
//
// Coordinates are Document AI normalized vertices scaled to the page
// dimension, so a page is measured in the processor's image pixels.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via a credentials file or GOOGLE_APPLICATION_CREDENTIALS
package gdocai
