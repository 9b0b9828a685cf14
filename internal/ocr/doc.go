// Package ocr provides Optical Character Recognition (OCR) using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) to recognize
// text in decoded images and report each word with its confidence and pixel
// bounding box.
//
// # Prerequisites
//
// The Tesseract and Leptonica libraries must be installed on the build and
// target machines:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Language data is looked up in Tesseract's default location unless the
// engine is created with an explicit tessdata directory.
//
// # Supported Languages
//
// Languages are Tesseract codes such as "eng", "deu" or "chi_sim". Several
// languages can be combined with "+", for example "eng+fra".
//
// # Thread Safety
//
// A gosseract client is not safe for concurrent use, so every Recognize call
// creates its own. Engine itself holds no mutable state.
package ocr
