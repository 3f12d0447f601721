// Package printing turns invoice records into PDF documents.
//
// Rendering happens in two steps:
//   - TemplateRenderer builds a self-contained HTML document from an invoice,
//     its client and the issuer profile. It performs no I/O.
//   - Rasterizer prints that document to an A4 PDF. ChromedpRasterizer drives
//     headless Chrome through the DevTools Protocol.
//
// Example usage:
//
//	tmpl, err := NewTemplateRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	markup, err := tmpl.Render(InvoiceView{Invoice: inv, Client: client, Issuer: profile})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	raster := NewChromedpRasterizer(ChromedpConfig{Timeout: 30 * time.Second})
//	defer raster.Close()
//
//	result, err := raster.Rasterize(ctx, markup)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated PDF: %d bytes\n", len(result.PDF))
package printing
