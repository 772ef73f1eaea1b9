package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"copymatch/logger"
)

// extractDocx returns the text of word/document.xml, one line per paragraph.
// Empty paragraphs are kept as blank lines so paragraph breaks survive.
func extractDocx(data []byte) string {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Debug("ingest: not a docx archive: %v", err)
		return ""
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return ""
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		return parseDocumentXML(content)
	}
	return ""
}

// parseDocumentXML walks the WordprocessingML token stream. Text comes from
// <w:t> elements, <w:tab> becomes a tab and <w:br>/<w:cr> a line break.
func parseDocumentXML(content []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var paras []string
	var cur strings.Builder
	inPara, inText := false, false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				cur.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if inPara {
					paras = append(paras, cur.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && inPara {
				cur.Write(el)
			}
		}
	}

	// trailing empty paragraphs carry no text
	for len(paras) > 0 && strings.TrimSpace(paras[len(paras)-1]) == "" {
		paras = paras[:len(paras)-1]
	}
	return strings.Join(paras, "\n")
}
