// Package boardingpass lays out a resolved ticket as a one-page boarding
// pass: brand header, passenger and flight lines, a Code-128 booking
// barcode, the route and schedule, and the baggage policy.
package boardingpass

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/dateformat"
	"github.com/MeKo-Tech/boardpass/internal/document"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/MeKo-Tech/boardpass/internal/utils"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMissingFlightCode rejects records that were not resolved properly.
var ErrMissingFlightCode = errors.New("ticket has no flight code")

const (
	brandTitle    = "XPECTRUM"
	brandSubtitle = "Operated by Expectrum Peru"
	brandHashtag  = "#YoSoyXPECTRUM"

	logoWidth       = 300.0
	logoRightInset  = 50.0
	logoBottomEdge  = 350.0
	classicLogoSize = 120.0

	barcodeWidthPx  = 300
	barcodeHeightPx = 80
	barcodeWidth    = 200.0
	barcodeHeight   = 50.0

	blankLine = 14.0
)

var baggagePolicy = []string{
	"Recuerda que el artículo personal permitido sin costo por Viva Air es una única pieza de máximo 6 kg y 40x35x25 cm. Exceder las medidas o peso tendrá un costo adicional.",
	"\nAcércate al counter para reclamar el pase de abordar y entregar el equipaje, está disponible entre 2 horas y 45 minutos antes de la salida programada para vuelos nacionales. Todos los pasajeros deben presentarse en la sala de espera a más tardar 45 minutos antes de la salida programada del vuelo.",
	"\nEl equipaje en cabina, y en general cualquier pieza, que exceda los 55x45x25 cm y 12 kg, deberá ser entregado en el counter de Viva Air antes de ingresar a la espera y dentro de los tiempos mencionados en el punto anterior.",
}

// Header is the brand block at the top of the pass: LogoHeader or TextHeader.
type Header interface {
	isHeader()
}

// LogoHeader carries the prepared logo image.
type LogoHeader struct {
	Image image.Image
}

// TextHeader is used when no logo could be prepared.
type TextHeader struct {
	Reason error
}

func (LogoHeader) isHeader() {}
func (TextHeader) isHeader() {}

// Renderer builds boarding-pass documents. It holds no per-render state and
// is safe for concurrent use.
type Renderer struct {
	log        *slog.Logger
	onFallback func(reason error)
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger used for the logo fallback warning.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) { r.log = l }
}

// WithFallbackHook is called every time the text header replaces the logo.
func WithFallbackHook(fn func(reason error)) RendererOption {
	return func(r *Renderer) { r.onFallback = fn }
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SelectHeader prepares the logo for the given profile, or explains why the
// text header must be used instead.
func SelectHeader(logo image.Image, opts Options) Header {
	if logo == nil {
		return TextHeader{Reason: fmt.Errorf("%w: no logo supplied", assets.ErrUnavailable)}
	}
	b := logo.Bounds()
	if b.Empty() {
		return TextHeader{Reason: fmt.Errorf("%w: logo has no pixels", assets.ErrUnavailable)}
	}

	constraints := utils.DefaultLogoConstraints()
	img := logo
	if b.Dx() > constraints.MaxWidth || b.Dy() > constraints.MaxHeight {
		scaled, err := utils.FitWidth(logo, constraints.MaxWidth, constraints)
		if err != nil {
			return TextHeader{Reason: err}
		}
		img = scaled
	}

	if opts.Profile == ProfileClassic {
		// The classic layout flows an opaque logo, no transparency survives.
		flat, err := utils.FlattenOnWhite(img)
		if err != nil {
			return TextHeader{Reason: err}
		}
		return LogoHeader{Image: flat}
	}
	return LogoHeader{Image: utils.RoundCorners(img, opts.LogoRadius)}
}

// Build lays out the pass for rec. logo may be nil.
func (r *Renderer) Build(rec ticket.Record, logo image.Image, opts Options) (*document.Model, error) {
	if strings.TrimSpace(rec.FlightCode) == "" {
		return nil, ErrMissingFlightCode
	}
	opts = opts.withDefaults()
	if _, err := ParseProfile(string(opts.Profile)); err != nil {
		return nil, err
	}

	// Encode first so an unencodable booking never produces a document.
	bars, err := barcode.Encode(opts.Booking, barcodeWidthPx, barcodeHeightPx)
	if err != nil {
		return nil, err
	}

	m := document.New()
	m.Created = opts.Now()
	m.Title = "Boarding pass " + rec.FlightCode
	m.Author = brandTitle

	r.addHeader(m, SelectHeader(logo, opts), opts)

	m.Add(
		para("Pase de abordar", 16, true),
		para("Online boarding pass", 12, false),
		document.Spacer{Height: blankLine},
		para("Nombre de pasajero/Name of passenger", 10, false),
		para(upperCase(dateformat.OrDash(rec.PassengerName)), 12, true),
		para("Vuelo No./Flight #: "+rec.FlightCode, 12, true),
		para("Grupo de abordaje: "+opts.Group, 10, false),
		para("Seat: "+opts.Seat, 10, false),
		para("Booking: "+opts.Booking, 10, false),
		document.Spacer{Height: blankLine},
		document.FlowImage{Name: "barcode", Image: bars.Image(), Width: barcodeWidth, Height: barcodeHeight},
	)

	departure := schedule(rec.DepartureDate, rec.DepartureTime)
	arrival := schedule(rec.ArrivalDate, rec.ArrivalTime)

	if opts.Profile == ProfileClassic {
		m.Add(para("Trayecto", 16, true))
	}
	m.Add(
		para(opts.Origin+" - "+opts.Airport, 20, true),
		document.Spacer{Height: blankLine},
	)
	if opts.Profile == ProfileClassic {
		m.Add(
			para("Salida", 10, false),
			para(departure, 14, true),
			para("Llegada", 10, false),
			para(arrival, 14, true),
		)
	} else {
		m.Add(
			para("Salida: "+departure, 14, true),
			para("Llegada: "+arrival, 14, true),
		)
	}
	m.Add(document.Spacer{Height: blankLine})

	for _, text := range baggagePolicy {
		m.Add(para(text, 8, false))
	}
	m.Add(para("\n"+brandHashtag, 12, true))

	return m, nil
}

// Render builds the pass and writes the PDF to w in one write. Nothing is
// written when building fails.
func (r *Renderer) Render(w io.Writer, rec ticket.Record, logo image.Image, opts Options) error {
	m, err := r.Build(rec, logo, opts)
	if err != nil {
		return err
	}
	return document.Write(w, m)
}

func (r *Renderer) addHeader(m *document.Model, h Header, opts Options) {
	switch hdr := h.(type) {
	case LogoHeader:
		if opts.Profile == ProfileClassic {
			b := hdr.Image.Bounds()
			m.Add(document.FlowImage{
				Name:   "logo",
				Image:  hdr.Image,
				Width:  classicLogoSize,
				Height: classicLogoSize * float64(b.Dy()) / float64(b.Dx()),
			})
		} else {
			m.Add(logoBlock(hdr.Image, m.Page))
		}
		m.Add(
			document.Paragraph{
				Text:        brandTitle,
				Style:       document.Style{Size: 28, Bold: true, Color: document.Black},
				SpaceBefore: 20,
			},
			document.Paragraph{
				Text:       brandSubtitle,
				Style:      document.Style{Size: 10, Color: document.Black},
				SpaceAfter: 20,
			},
		)
	case TextHeader:
		r.log.Warn("Logo unavailable, using text header", "reason", hdr.Reason)
		if r.onFallback != nil {
			r.onFallback(hdr.Reason)
		}
		m.Add(
			document.Paragraph{Text: brandTitle, Style: document.Style{Size: 28, Bold: true, Color: document.Blue}},
			document.Paragraph{Text: brandSubtitle, Style: document.Style{Size: 10, Color: document.Black}},
		)
	}
}

// logoBlock pins the logo to the top right; its bottom edge sits at a fixed
// distance from the top of the page.
func logoBlock(img image.Image, page document.PageSize) document.FixedImage {
	b := img.Bounds()
	height := logoWidth * float64(b.Dy()) / float64(b.Dx())
	return document.FixedImage{
		Name:  "logo",
		Image: img,
		X:     page.Width - logoWidth - logoRightInset,
		Y:     max(logoBottomEdge-height, 0),
		Width: logoWidth,
	}
}

// upperCase builds a fresh Caser per call; Casers are not safe for concurrent use.
func upperCase(s string) string {
	return cases.Upper(language.Spanish).String(s)
}

// schedule renders "13 Jun 2025 08:30", with "-" for missing parts.
func schedule(date, clock string) string {
	return dateformat.Format(dateformat.OrDash(date)) + " " + dateformat.ShortTime(dateformat.OrDash(clock))
}

func para(text string, size float64, bold bool) document.Paragraph {
	return document.Paragraph{Text: text, Style: document.Style{Size: size, Bold: bold, Color: document.Black}}
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N} ._-]+`)

// FileName returns "BoardingPass-{name}-{code}.pdf" with path-unsafe
// characters replaced.
func FileName(rec ticket.Record) string {
	name := unsafeFileChars.ReplaceAllString(strings.TrimSpace(dateformat.OrDash(rec.PassengerName)), "_")
	code := unsafeFileChars.ReplaceAllString(strings.TrimSpace(dateformat.OrDash(rec.FlightCode)), "_")
	return fmt.Sprintf("BoardingPass-%s-%s.pdf", name, code)
}
