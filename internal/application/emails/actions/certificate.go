package actions

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="1100" height="850" viewBox="0 0 1100 850">
  <rect x="20" y="20" width="1060" height="810" fill="none" stroke="#383838" stroke-width="4"/>
  <text x="550" y="220" font-family="sans-serif" font-size="48" text-anchor="middle">Certificate of Achievement</text>
  <text x="550" y="330" font-family="sans-serif" font-size="28" text-anchor="middle">This is to certify that</text>
  <text x="550" y="420" font-family="sans-serif" font-size="44" font-weight="bold" text-anchor="middle">{{ .Name }}</text>
  <text x="550" y="510" font-family="sans-serif" font-size="28" text-anchor="middle">has been awarded the</text>
  <text x="550" y="580" font-family="sans-serif" font-size="36" text-anchor="middle">{{ .Badge }}</text>
  <text x="550" y="700" font-family="sans-serif" font-size="24" text-anchor="middle">{{ .Date }}</text>
</svg>
`))

// RenderCertificate draws the award certificate for person as SVG.
func RenderCertificate(person *entity.Person, award *entity.Award) (io.Reader, error) {
	badge := award.Badge.Title
	if badge == "" {
		badge = award.Badge.Name
	}
	var buf bytes.Buffer
	err := certificateTemplate.Execute(&buf, map[string]string{
		"Name":  person.FullName(),
		"Badge": badge,
		"Date":  award.AwardedAt.Format("2 January 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return &buf, nil
}

func CertificateFilename(person *entity.Person) string {
	name := strings.ToLower(strings.Join(strings.Fields(person.FullName()), "-"))
	if name == "" {
		name = fmt.Sprintf("person-%d", person.ID)
	}
	return name + "-instructor-certificate.svg"
}
