package form

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"console/internal/domain"
)

type stubUploader struct {
	url string
	err error
	got string
}

func (u *stubUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	u.got = filename + ":" + string(b)
	return u.url, u.err
}

func ptr(f float64) *float64 { return &f }

func TestForm_ToggleNeverNil(t *testing.T) {
	schema := domain.Schema{{Key: "published", Label: "Published", Type: domain.FieldBoolean}}
	f := NewForm(schema, nil)

	assert.Nil(t, f.Value("published"))
	assert.True(t, f.Toggle("published"))
	assert.Equal(t, true, f.Value("published"))
	assert.False(t, f.Toggle("published"))
	assert.Equal(t, false, f.Value("published"))

	f.HandleChange("published", "garbage")
	assert.True(t, f.Toggle("published"))
}

func TestForm_RoundTripUnchanged(t *testing.T) {
	schema := domain.Schema{
		{Key: "title", Label: "Title", Type: domain.FieldText},
		{Key: "meta", Label: "Meta", Type: domain.FieldJSON},
		{Key: "tags", Label: "Tags", Type: domain.FieldTags},
		{Key: "secret", Label: "Secret", Type: domain.FieldText, Hidden: true},
	}
	initial := domain.Record{
		"id":     "r1",
		"title":  "Hello",
		"meta":   map[string]any{"a": []any{1.0, "x"}},
		"tags":   []any{"a", "b"},
		"secret": "s3",
		"extra":  42.0,
	}

	var got domain.Record
	f := NewForm(schema, initial, WithSubmit(func(_ context.Context, data domain.Record) error {
		got = data
		return nil
	}))
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, initial, got)

	// The submitted copy is detached from the form and from initial.
	got["meta"].(map[string]any)["a"] = "changed"
	assert.Equal(t, []any{1.0, "x"}, initial["meta"].(map[string]any)["a"])
}

func TestForm_ClearTitleScenario(t *testing.T) {
	schema := domain.Schema{{Key: "title", Label: "Title", Type: domain.FieldText, Required: true}}
	var got domain.Record
	f := NewForm(schema, domain.Record{"title": "Hello"}, WithSubmit(func(_ context.Context, data domain.Record) error {
		got = data
		return nil
	}))

	widgets := f.Widgets()
	require.Len(t, widgets, 1)
	assert.Equal(t, KindInput, widgets[0].Kind)
	assert.Equal(t, "text", widgets[0].InputType)
	assert.Equal(t, "Hello", widgets[0].Value)
	assert.True(t, widgets[0].Required)

	f.HandleChange("title", "")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Record{"title": ""}, got)
}

func TestForm_Tags(t *testing.T) {
	schema := domain.Schema{{Key: "tags", Label: "Tags", Type: domain.FieldTags}}
	f := NewForm(schema, nil)

	f.AddTag("tags", "a")
	f.AddTag("tags", " b ")
	f.AddTag("tags", "a")
	f.AddTag("tags", "  ")

	data, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, data["tags"])

	f.RemoveTag("tags", "a")
	assert.Equal(t, []string{"b"}, f.Value("tags"))
}

func TestForm_ExtraEmailField(t *testing.T) {
	schema := domain.Schema{{Key: "title", Label: "Title", Type: domain.FieldText}}
	f := NewForm(schema, domain.Record{"id": "r1", "title": "x", "email": "a@b.com"})

	widgets := f.Widgets()
	require.Len(t, widgets, 2)
	extra := widgets[1]
	assert.True(t, extra.Extra)
	assert.Equal(t, domain.FieldEmail, extra.Type)
	assert.Equal(t, "Email", extra.Label)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, `<input type="email" id="f-email" name="email"`)
	assert.Contains(t, html, `value="a@b.com"`)
	assert.NotContains(t, html, `name="id"`)
}

func TestForm_DefaultsOnlyWithoutInitial(t *testing.T) {
	schema := domain.Schema{
		{Key: "status", Label: "Status", Type: domain.FieldSelect, DefaultValue: "draft",
			Options: []domain.FieldOption{{Value: "draft", Label: "Draft"}, {Value: "live", Label: "Live"}}},
		{Key: "title", Label: "Title", Type: domain.FieldText},
	}

	f := NewForm(schema, nil)
	assert.Equal(t, domain.Record{"status": "draft"}, f.Draft())
	w := f.Widgets()[0]
	assert.Equal(t, KindSelect, w.Kind)
	assert.True(t, w.Choices[0].Selected)
	assert.False(t, w.Choices[1].Selected)

	f = NewForm(schema, domain.Record{"title": "t"})
	assert.Equal(t, domain.Record{"title": "t"}, f.Draft())
}

func TestForm_SetJSON(t *testing.T) {
	f := NewForm(domain.Schema{{Key: "meta", Label: "Meta", Type: domain.FieldJSON}}, nil)

	f.SetJSON("meta", `{"a": 1}`)
	assert.Equal(t, map[string]any{"a": 1.0}, f.Value("meta"))

	f.SetJSON("meta", `{not json`)
	assert.Equal(t, "{not json", f.Value("meta"))
}

func TestForm_SetColor(t *testing.T) {
	f := NewForm(domain.Schema{{Key: "c", Label: "C", Type: domain.FieldColor}}, nil)

	f.SetColor("c", "#FA0")
	assert.Equal(t, "#ffaa00", f.Value("c"))
	f.SetColor("c", "00FF00")
	assert.Equal(t, "#00ff00", f.Value("c"))
	f.SetColor("c", "red")
	assert.Equal(t, "red", f.Value("c"))
}

func TestForm_SetNumberClamps(t *testing.T) {
	schema := domain.Schema{
		{Key: "volume", Label: "Volume", Type: domain.FieldSlider, Min: ptr(0), Max: ptr(10)},
		{Key: "stars", Label: "Stars", Type: domain.FieldRating},
		{Key: "price", Label: "Price", Type: domain.FieldNumber, Max: ptr(1)},
	}
	f := NewForm(schema, nil)

	assert.Equal(t, 10.0, f.SetNumber("volume", 99))
	assert.Equal(t, 0.0, f.SetNumber("volume", -3))
	assert.Equal(t, 5.0, f.SetNumber("stars", 7))
	assert.Equal(t, 50.0, f.SetNumber("price", 50))
}

func TestForm_DateSetters(t *testing.T) {
	schema := domain.Schema{
		{Key: "d", Label: "D", Type: domain.FieldDate},
		{Key: "dt", Label: "DT", Type: domain.FieldDateTime},
		{Key: "t", Label: "T", Type: domain.FieldTime},
	}
	f := NewForm(schema, nil)

	f.SetDate("d", "2024-03-01")
	f.SetDateTime("dt", "2024-03-01T10:30")
	f.SetTime("t", "09:15")

	assert.Equal(t, "2024-03-01", f.Value("d"))
	assert.Equal(t, "2024-03-01T10:30:00Z", f.Value("dt"))
	assert.Equal(t, "09:15", f.Value("t"))

	widgets := f.Widgets()
	assert.Equal(t, "date", widgets[0].InputType)
	assert.Equal(t, "datetime-local", widgets[1].InputType)
	assert.Equal(t, "2024-03-01T10:30", widgets[1].Value)
	assert.Equal(t, "time", widgets[2].InputType)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "2024-03-01", FormatDate("2024-03-01T22:10:00Z"))
	assert.Equal(t, "2024-03-01", FormatDate("2024-03-01"))
	assert.Equal(t, "", FormatDate("not a date"))
	assert.Equal(t, "", FormatDate(nil))

	assert.Equal(t, "2024-03-01T22:10", FormatDateTime("2024-03-01T22:10:05Z"))
	assert.Equal(t, "2024-03-01T00:00", FormatDateTime("2024-03-01"))

	assert.Equal(t, "10:30", FormatTime("10:30:15"))
	assert.Equal(t, "22:10", FormatTime("2024-03-01T22:10:05Z"))
	assert.Equal(t, "", FormatTime(12.0))
}

func TestForm_PasswordReveal(t *testing.T) {
	f := NewForm(domain.Schema{{Key: "pw", Label: "Password", Type: domain.FieldPassword}}, domain.Record{"pw": "hunter2"})

	assert.Equal(t, "password", f.Widgets()[0].InputType)
	assert.True(t, f.ToggleReveal("pw"))
	w := f.Widgets()[0]
	assert.Equal(t, "text", w.InputType)
	assert.True(t, w.Revealed)
	assert.Equal(t, domain.Record{"pw": "hunter2"}, f.Draft())
}

func TestForm_Upload(t *testing.T) {
	schema := domain.Schema{{Key: "cover", Label: "Cover", Type: domain.FieldImage}}

	t.Run("success stores url", func(t *testing.T) {
		up := &stubUploader{url: "/files/abc.png"}
		f := NewForm(schema, nil, WithUploader(up))

		url, err := f.Upload(context.Background(), "cover", "a.png", strings.NewReader("img"))
		require.NoError(t, err)
		assert.Equal(t, "/files/abc.png", url)
		assert.Equal(t, "/files/abc.png", f.Value("cover"))
		assert.Equal(t, "a.png:img", up.got)
	})

	t.Run("failure leaves field unset", func(t *testing.T) {
		up := &stubUploader{err: errors.New("disk full")}
		f := NewForm(schema, nil, WithUploader(up))

		_, err := f.Upload(context.Background(), "cover", "a.png", strings.NewReader("img"))
		require.Error(t, err)
		assert.Nil(t, f.Value("cover"))
	})

	t.Run("no uploader", func(t *testing.T) {
		f := NewForm(schema, nil)
		_, err := f.Upload(context.Background(), "cover", "a.png", strings.NewReader("img"))
		assert.ErrorIs(t, err, ErrNoUploader)
	})
}

func TestForm_SubmitError(t *testing.T) {
	boom := errors.New("boom")
	f := NewForm(nil, domain.Record{"a": 1.0}, WithSubmit(func(context.Context, domain.Record) error { return boom }))

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, f.Submitting())

	f = NewForm(nil, nil, WithSubmitting(true))
	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitting)
}

func TestForm_Cancel(t *testing.T) {
	cancelled := false
	f := NewForm(domain.Schema{{Key: "title", Label: "Title", Type: domain.FieldText}},
		domain.Record{"title": "orig"}, WithCancel(func() { cancelled = true }))

	f.HandleChange("title", "edited")
	f.Cancel()

	assert.True(t, cancelled)
	assert.Equal(t, domain.Record{"title": "orig"}, f.Draft())
}

func TestForm_ApplyValues(t *testing.T) {
	schema := domain.Schema{
		{Key: "title", Label: "Title", Type: domain.FieldText},
		{Key: "count", Label: "Count", Type: domain.FieldNumber},
		{Key: "published", Label: "Published", Type: domain.FieldBoolean},
		{Key: "tags", Label: "Tags", Type: domain.FieldTags},
		{Key: "cats", Label: "Cats", Type: domain.FieldMultiSelect,
			Options: []domain.FieldOption{{Value: "x", Label: "X"}, {Value: "y", Label: "Y"}}},
		{Key: "meta", Label: "Meta", Type: domain.FieldJSON},
		{Key: "color", Label: "Color", Type: domain.FieldColor},
		{Key: "locked", Label: "Locked", Type: domain.FieldText, ReadOnly: true},
	}
	f := NewForm(schema, domain.Record{"published": true, "locked": "keep", "color": "#000000"})

	f.ApplyValues(url.Values{
		"title":  {"New"},
		"count":  {"12"},
		"tags":   {"a, b,a"},
		"cats":   {"", "y"},
		"meta":   {`{"k": true}`},
		"color":         {"#ABC"},
		"color__picker": {"#000000"},
		"locked": {"changed"},
	})

	assert.Equal(t, domain.Record{
		"title":     "New",
		"count":     12.0,
		"published": false,
		"tags":      []string{"a", "b"},
		"cats":      []string{"y"},
		"meta":      map[string]any{"k": true},
		"color":     "#aabbcc",
		"locked":    "keep",
	}, f.Draft())
}

func TestForm_ApplyValuesColorRoundTrip(t *testing.T) {
	schema := domain.Schema{{Key: "accent", Label: "Accent", Type: domain.FieldColor}}

	for _, stored := range []string{"", "#FA0", "#ff00aa", "red"} {
		t.Run(stored, func(t *testing.T) {
			initial := domain.Record{"accent": stored}
			var got domain.Record
			f := NewForm(schema, initial, WithSubmit(func(_ context.Context, data domain.Record) error {
				got = data
				return nil
			}))

			// Post back exactly what the color control renders.
			w := f.Widgets()[0]
			html, err := f.HTML()
			require.NoError(t, err)
			assert.Contains(t, string(html), `name="accent__picker" value="`+w.Picker+`"`)

			f.ApplyValues(url.Values{"accent": {w.Value}, "accent__picker": {w.Picker}})
			_, err = f.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, initial, got)
		})
	}
}

func TestForm_ApplyValuesColorEdits(t *testing.T) {
	schema := domain.Schema{{Key: "accent", Label: "Accent", Type: domain.FieldColor}}

	f := NewForm(schema, domain.Record{"accent": "#FA0"})
	f.ApplyValues(url.Values{"accent": {"#FA0"}, "accent__picker": {"#123456"}})
	assert.Equal(t, "#123456", f.Value("accent"))

	// Typed text wins over the picker.
	f = NewForm(schema, domain.Record{"accent": ""})
	f.ApplyValues(url.Values{"accent": {"0f0"}, "accent__picker": {"#123456"}})
	assert.Equal(t, "#00ff00", f.Value("accent"))

	f = NewForm(schema, domain.Record{"accent": "#ffaa00"})
	f.ApplyValues(url.Values{"accent": {""}, "accent__picker": {"#ffaa00"}})
	assert.Equal(t, "", f.Value("accent"))
}

func TestForm_RatingStarsBounded(t *testing.T) {
	schema := domain.Schema{{Key: "r", Label: "R", Type: domain.FieldRating, Max: ptr(1e10)}}
	f := NewForm(schema, domain.Record{"r": 3.0})

	w := f.Widgets()[0]
	assert.Len(t, w.Choices, maxRatingStars)
	assert.Equal(t, "1", w.Choices[0].Value)
	assert.True(t, w.Choices[2].Selected)
	assert.False(t, w.Choices[3].Selected)

	_, err := f.HTML()
	require.NoError(t, err)
}

func TestForm_SelectKeepsUnknownValue(t *testing.T) {
	schema := domain.Schema{
		{Key: "status", Label: "Status", Type: domain.FieldSelect,
			Options: []domain.FieldOption{{Value: "draft", Label: "Draft"}}},
		{Key: "cats", Label: "Cats", Type: domain.FieldMultiSelect,
			Options: []domain.FieldOption{{Value: "x", Label: "X"}}},
	}
	f := NewForm(schema, domain.Record{"status": "archived", "cats": []any{"x", "legacy"}})

	ws := f.Widgets()
	assert.Equal(t, []Choice{
		{Value: "draft", Label: "Draft"},
		{Value: "archived", Label: "archived", Selected: true},
	}, ws[0].Choices)
	assert.Equal(t, []Choice{
		{Value: "x", Label: "X", Selected: true},
		{Value: "legacy", Label: "legacy", Selected: true},
	}, ws[1].Choices)

	html, err := f.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), `<option value="archived" selected>archived</option>`)
}

func TestForm_ApplyValuesKeepsUnchangedDateTime(t *testing.T) {
	schema := domain.Schema{{Key: "at", Label: "At", Type: domain.FieldDateTime}}
	f := NewForm(schema, domain.Record{"at": "2024-03-01T10:30:45Z"})

	f.ApplyValues(url.Values{"at": {"2024-03-01T10:30"}})
	assert.Equal(t, "2024-03-01T10:30:45Z", f.Value("at"))

	f.ApplyValues(url.Values{"at": {"2024-03-02T08:00"}})
	assert.Equal(t, "2024-03-02T08:00:00Z", f.Value("at"))
}

func TestRegisterWidget(t *testing.T) {
	original := builderFor(domain.FieldReference)
	t.Cleanup(func() { RegisterWidget(domain.FieldReference, original) })

	RegisterWidget(domain.FieldReference, func(w *Widget, field domain.SchemaField, value any) {
		w.Kind = KindSelect
		w.Choices = []Choice{{Value: "u1", Label: "User 1", Selected: value == "u1"}}
	})

	f := NewForm(domain.Schema{{Key: "owner", Label: "Owner", Type: domain.FieldReference, ReferenceType: "users"}},
		domain.Record{"owner": "u1"})
	w := f.Widgets()[0]
	assert.Equal(t, KindSelect, w.Kind)
	assert.True(t, w.Choices[0].Selected)
}

func TestWidgetKinds(t *testing.T) {
	tests := []struct {
		typ       domain.FieldType
		kind      Kind
		inputType string
	}{
		{domain.FieldText, KindInput, "text"},
		{domain.FieldURL, KindInput, "url"},
		{domain.FieldPhone, KindInput, "tel"},
		{domain.FieldReference, KindInput, "text"},
		{domain.FieldNumber, KindInput, "number"},
		{domain.FieldTextarea, KindTextarea, ""},
		{domain.FieldRichText, KindTextarea, ""},
		{domain.FieldMarkdown, KindTextarea, ""},
		{domain.FieldBoolean, KindCheckbox, ""},
		{domain.FieldImage, KindUpload, ""},
		{domain.FieldFile, KindUpload, ""},
		{domain.FieldRating, KindRating, ""},
		{domain.FieldSlider, KindSlider, ""},
		{"unknown", KindInput, "text"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			w := buildWidget(domain.SchemaField{Key: "k", Label: "K", Type: tt.typ}, nil)
			assert.Equal(t, tt.kind, w.Kind)
			assert.Equal(t, tt.inputType, w.InputType)
		})
	}
}

func TestForm_RenderAllKinds(t *testing.T) {
	var schema domain.Schema
	for _, ft := range domain.FieldTypes {
		field := domain.SchemaField{Key: strings.ReplaceAll(string(ft), "-", "_"), Label: string(ft), Type: ft}
		if ft.HasOptions() {
			field.Options = []domain.FieldOption{{Value: "a", Label: "A"}}
		}
		schema = append(schema, field)
	}
	f := NewForm(schema, domain.Record{"tags": []string{"x"}, "rating": 3.0, "image": "/files/p.png"})

	html, err := f.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), `<textarea id="f-rich_text" name="rich_text"`)
	assert.Contains(t, string(html), `type="range"`)
	assert.Contains(t, string(html), `<img src="/files/p.png"`)
	assert.Contains(t, string(html), `<span class="chip">x</span>`)
	assert.Equal(t, 3, strings.Count(string(html), "★"))
}
