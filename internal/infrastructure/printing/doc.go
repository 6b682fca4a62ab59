// Package printing renders bills as PDF documents with gofpdf.
package printing
