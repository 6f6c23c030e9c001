// Package hocr reads hOCR documents, the HTML-based format OCR engines such
// as Tesseract use to report recognized text with its geometry, and serves
// them as glyph geometry to coordinate maps.
//
// The hOCR hierarchy (page, content area, paragraph, line, word) is
// flattened to pages of lines of words in document order, which is the
// reading order the OCR engine produced. Areas and paragraphs only
// contribute their ordering.
//
// Key Types:
//
// - Document: a parsed hOCR file
// - Page: one element with class 'ocr_page'
// - Line: one element with class 'ocr_line' (or the loose words of a block)
// - Word: one element with class 'ocrx_word'
// - Source: a coordmap.GeometrySource over a Document
package hocr
