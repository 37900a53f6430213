package gateway

import "fmt"

// drawingAnalysisPrompt asks the vision model for a deep, structured
// description of one drawing page.
const drawingAnalysisPrompt = `Carefully analyze the drawing and provide the following information:

1. Drawing type: identify the type of drawing (architectural, mechanical, electrical, plumbing, etc.); retain the original language when translating.
2. Major components: identify the major components shown in the drawing.
3. Numerical values and dimensions: accurately record all numerical values and dimensions shown.
   - Clearly indicate the value and unit of every dimension
   - Classify dimensions such as length, width, height, diameter, and radius systematically
4. Annotations and special symbols: include the meaning of annotations and special symbols on the drawing.
5. Coordinates and orientation: if coordinates or orientation are indicated, specify them.
6. Record content that is a combination of numbers, characters, and special symbols.
7. If there are notes in the drawing, record the note contents in detail (e.g. nozzle data descriptions).
8. Table format information: data presented in tables must be organized as tables.
   - Clearly distinguish each column, row, and cell
   - Convert the table headers and data to JSON format
9. Record all text in its original language, and provide both the original and a translation where translation is needed.

Return format:
- Structure the analysis results in JSON format.
- Write table data accurately as JSON key-value pairs.
- Record numbers and units exactly, grouped by category where possible.
- At the end, add numerical data in a JSON block of the following form:

` + "```json" + `
{
  "drawing_type": "drawing type",
  "key_dimensions": [
    {"component": "component", "dimension": "dimension", "value": 0, "unit": "unit"}
  ],
  "coordinates": {
    "system": "coordinate system type",
    "orientation": "orientation information"
  }
}
` + "```"

// drawingIdentificationPrompt asks for a binary drawing verdict. Kept short
// so the verdict fits the tiny token budget.
const drawingIdentificationPrompt = `Decide whether this image is a technical drawing, architectural drawing, or engineering schematic.
An image with many straight lines, shapes, dimensions, and technical notation but little text is likely a drawing. A page containing only tabular data also counts as a drawing.
Answer only "YES" if it is a drawing, or only "NO" if it is not.`

// affirmativeToken is the substring, matched case-insensitively, that makes
// a classification reply count as a drawing verdict.
const affirmativeToken = "YES"

// normalizationPrompt instructs the text model to clean one chunk of the
// enriched markdown without losing content.
func normalizationPrompt(docName, chunk string) string {
	return fmt.Sprintf(`You are an expert at integrating drawing images and analysis results into a PDF document's markdown while preserving its original content.
Keep the markdown content of the document "%s" intact while presenting drawing images and analysis results cleanly.
This text is one part of a larger document.

Rules you must follow absolutely:
1. Preserve the provided original markdown content as much as possible.
2. If drawing images and analysis results are already inserted, keep their format as-is.
3. Preserve the original PDF content even where there are no drawings.
4. Keep image reference syntax (![Drawing Image](path)) exactly intact.
5. Keep the tabular form of drawing analyses. Interpret JSON data into table form, clearly separating the header, each column, each row, and each cell.
6. Preserve the page separators (<!-- page N -->).
7. Keep heading levels consistent across the document.
8. Remove empty sections and filler such as "no content provided".
9. The chunk may begin or end mid-sentence; leave incomplete boundary sentences exactly as they are.
10. Keep page separators even for blank pages.

Original markdown content:
`+"```"+`
%s
`+"```"+`

Output the markdown directly, with no preamble such as "here is the cleaned version".`, docName, chunk)
}
