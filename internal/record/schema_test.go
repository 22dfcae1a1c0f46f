package record

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/maruel/recset/internal/calendar"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type photoMeta struct {
	Camera string `json:"camera"`
	ISO    int    `json:"iso"`
}

type photo struct {
	Base
	Title    string        `json:"title" jsonschema:"required,description=Photo title"`
	Tags     []string      `json:"tags"`
	TakenAt  time.Time     `json:"taken_at"`
	Exposure time.Duration `json:"exposure"`
	Public   bool          `json:"public"`
	Meta     photoMeta     `json:"meta"`
	Rating   *int          `json:"rating"`
	Ignored  string        `json:"-"`
}

type valueRecord struct{}

func (valueRecord) GetID() ID { return ID{} }
func (valueRecord) SetID(ID)  {}

func newPhotoSchema(t *testing.T) (*Schema[*photo], *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s, err := SchemaOf[*photo](Options{
		Standard: calendar.CST,
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
	})
	if err != nil {
		t.Fatalf("SchemaOf failed: %v", err)
	}
	return s, &buf
}

func TestSchemaOf(t *testing.T) {
	s, _ := newPhotoSchema(t)
	want := []string{"id", "title", "tags", "taken-at", "exposure", "public", "meta", "rating"}
	if got := s.FieldNames(); !slices.Equal(got, want) {
		t.Errorf("FieldNames = %v, want %v", got, want)
	}
	if s.Open() {
		t.Error("struct schema should not be open")
	}
	if got := s.TypeName(); got != "record.photo" {
		t.Errorf("TypeName = %q", got)
	}
	fields := s.Fields()
	if fields[1].Description != "Photo title" || !fields[1].Required {
		t.Errorf("title field = %+v", fields[1])
	}
	if fields[2].Required {
		t.Errorf("tags should not be required")
	}
	if s.JSONSchema() == nil {
		t.Error("JSONSchema returned nil")
	}

	if _, err := SchemaOf[valueRecord](Options{}); err == nil {
		t.Error("SchemaOf(non-pointer) succeeded, want error")
	}
}

func TestSchemaDecode(t *testing.T) {
	t.Run("Coercion", func(t *testing.T) {
		s, buf := newPhotoSchema(t)
		p := s.Decode(map[string]any{
			"id":       "7",
			"Title":    "beach",
			"tags":     []any{"a", "", "b"},
			"taken-at": "2024-01-02 11:04:05",
			"exposure": "2",
			"public":   "TRUE",
			"meta":     map[string]any{"camera": "x100", "iso": "200"},
			"rating":   "5",
		})
		if p.ID != StringID("7") {
			t.Errorf("ID = %#v", p.ID)
		}
		if p.Title != "beach" {
			t.Errorf("Title = %q", p.Title)
		}
		if !slices.Equal(p.Tags, []string{"a", "b"}) {
			t.Errorf("Tags = %v", p.Tags)
		}
		if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !p.TakenAt.Equal(want) {
			t.Errorf("TakenAt = %v, want %v", p.TakenAt, want)
		}
		if p.Exposure != 2*time.Second {
			t.Errorf("Exposure = %v", p.Exposure)
		}
		if !p.Public {
			t.Error("Public = false")
		}
		if p.Meta != (photoMeta{Camera: "x100", ISO: 200}) {
			t.Errorf("Meta = %+v", p.Meta)
		}
		if p.Rating == nil || *p.Rating != 5 {
			t.Errorf("Rating = %v", p.Rating)
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected warnings: %s", buf)
		}
	})
	t.Run("UnknownField", func(t *testing.T) {
		s, buf := newPhotoSchema(t)
		p := s.Decode(map[string]any{"id": "1", "title": "x", "color": "red"})
		if p.Title != "x" {
			t.Errorf("Title = %q", p.Title)
		}
		log := buf.String()
		if !strings.Contains(log, "unknown field dropped") || !strings.Contains(log, "field=color") {
			t.Errorf("missing warning: %s", log)
		}
	})
	t.Run("InvalidValue", func(t *testing.T) {
		s, buf := newPhotoSchema(t)
		p := s.Decode(map[string]any{"title": "x", "rating": "five"})
		if p.Rating != nil {
			t.Errorf("Rating = %v, want nil", *p.Rating)
		}
		if !strings.Contains(buf.String(), "invalid value dropped") {
			t.Errorf("missing warning: %s", buf)
		}
	})
	t.Run("MissingRequired", func(t *testing.T) {
		s, buf := newPhotoSchema(t)
		s.Decode(map[string]any{"id": "1"})
		log := buf.String()
		if !strings.Contains(log, "required field missing") || !strings.Contains(log, "field=title") {
			t.Errorf("missing warning: %s", log)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		s, _ := newPhotoSchema(t)
		p := s.Decode(map[string]any{"id": "", "title": "x", "tags": ""})
		if !p.ID.IsZero() || p.Tags != nil {
			t.Errorf("got ID=%#v Tags=%v, want both absent", p.ID, p.Tags)
		}
	})
	t.Run("EmbeddedJSON", func(t *testing.T) {
		s, _ := newPhotoSchema(t)
		p := s.Decode(map[string]any{"title": "x", "tags": `["a","b"]`, "meta": `{"camera":"z","iso":3}`})
		if !slices.Equal(p.Tags, []string{"a", "b"}) {
			t.Errorf("Tags = %v", p.Tags)
		}
		if p.Meta != (photoMeta{Camera: "z", ISO: 3}) {
			t.Errorf("Meta = %+v", p.Meta)
		}
	})
}

func TestSchemaEncode(t *testing.T) {
	s, _ := newPhotoSchema(t)
	rating := 4
	p := &photo{
		Base:     Base{ID: IntID(3)},
		Title:    "beach",
		Tags:     []string{"a", "b"},
		TakenAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Exposure: 1500 * time.Millisecond,
		Public:   true,
		Meta:     photoMeta{Camera: "x100", ISO: 200},
		Rating:   &rating,
		Ignored:  "no",
	}
	om := s.Encode(p)
	var keys []string
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if want := s.FieldNames(); !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	b, err := json.Marshal(om)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"id":3,"title":"beach","tags":["a","b"],"taken-at":"2024-01-02 11:04:05","exposure":2,` +
		`"public":"TRUE","meta":{"camera":"x100","iso":200},"rating":4}`
	if string(b) != want {
		t.Errorf("Encode =\n%s\nwant\n%s", b, want)
	}

	empty := s.Encode(&photo{})
	if v, _ := empty.Get("taken-at"); v != nil {
		t.Errorf("zero time = %v, want nil", v)
	}
	if v, _ := empty.Get("id"); v != nil {
		t.Errorf("zero id = %v, want nil", v)
	}
	if s.Encode(nil).Len() != 0 {
		t.Error("Encode(nil) should be empty")
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	s, buf := newPhotoSchema(t)
	rating := 4
	in := &photo{
		Base:     Base{ID: StringID("9")},
		Title:    "beach",
		Tags:     []string{"a", "b"},
		TakenAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Exposure: 3 * time.Second,
		Public:   true,
		Meta:     photoMeta{Camera: "x100", ISO: 200},
		Rating:   &rating,
	}
	got := s.Decode(orderedToMap(s.Encode(in)))
	if got.ID != in.ID || got.Title != in.Title || !slices.Equal(got.Tags, in.Tags) ||
		!got.TakenAt.Equal(in.TakenAt) || got.Exposure != in.Exposure || got.Public != in.Public ||
		got.Meta != in.Meta || got.Rating == nil || *got.Rating != rating {
		t.Errorf("round trip = %+v, want %+v", got, in)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected warnings: %s", buf)
	}
}

func orderedToMap(om *orderedmap.OrderedMap[string, any]) map[string]any {
	m := make(map[string]any, om.Len())
	for p := om.Oldest(); p != nil; p = p.Next() {
		m[p.Key] = p.Value
	}
	return m
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Error("framing should separate parts")
	}
	if Fingerprint(1, "x") != Fingerprint(1, "x") {
		t.Error("Fingerprint is not deterministic")
	}
	if got := len(Fingerprint()); got != 16 {
		t.Errorf("len = %d, want 16", got)
	}
}
