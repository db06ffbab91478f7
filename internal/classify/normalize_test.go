package classify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxtally/internal/llm"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Classification
		wantErr bool
	}{
		{
			name: "full object",
			text: `{"Category":"Work","Priority":"Important","RequiresResponse":"Yes"}`,
			want: Classification{CategoryWork, PriorityImportant, ResponseYes},
		},
		{
			name: "surrounding whitespace",
			text: "\n  {\"Category\":\"School\",\"Priority\":\"Normal\",\"RequiresResponse\":\"No\"}  \n",
			want: Classification{CategorySchool, PriorityNormal, ResponseNo},
		},
		{
			name: "category only",
			text: `{"Category":"Shopping"}`,
			want: Classification{Category: CategoryShopping},
		},
		{
			name: "lower case keys and values",
			text: `{"category":"work","priority":"important","requiresresponse":"yes"}`,
			want: Classification{CategoryWork, PriorityImportant, ResponseYes},
		},
		{
			name: "unknown values are canonicalised",
			text: `{"Category":"Finance","Priority":"Urgent","RequiresResponse":"Maybe"}`,
			want: Classification{Category: CategoryUncategorized},
		},
		{
			name: "non-string priority is dropped",
			text: `{"Category":"Work","Priority":1}`,
			want: Classification{Category: CategoryWork},
		},
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace", text: "   ", wantErr: true},
		{name: "prose", text: "Sorry, I cannot classify this.", wantErr: true},
		{name: "array", text: `[{"Category":"Work"}]`, wantErr: true},
		{name: "null", text: "null", wantErr: true},
		{name: "number", text: "42", wantErr: true},
		{name: "string", text: `"Work"`, wantErr: true},
		{name: "missing category", text: `{"Priority":"Normal"}`, wantErr: true},
		{name: "null category", text: `{"Category":null}`, wantErr: true},
		{name: "numeric category", text: `{"Category":3}`, wantErr: true},
		{name: "trailing prose", text: `{"Category":"Work"} hope this helps`, wantErr: true},
		{name: "two objects", text: `{"Category":"Work"}{"Category":"School"}`, wantErr: true},
		{name: "truncated", text: `{"Category":"Work","Prio`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CaseVariantKeysAreStable(t *testing.T) {
	text := `{"category":"School","CATEGORY":"Work","Category ":"Shopping"}`
	for i := 0; i < 200; i++ {
		got, err := Parse(text)
		require.NoError(t, err)
		require.Equal(t, CategoryWork, got.Category, "run %d", i)
	}

	got, err := Parse(`{"category":"School","Category":"Shopping"}`)
	require.NoError(t, err)
	assert.Equal(t, CategoryShopping, got.Category, "exact key wins")
}

func TestNormalize_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"garbage",
		"[]",
		"[1,2,3]",
		"null",
		"true",
		"3.14",
		"{",
		"}",
		`{"Category":`,
		"Sorry, I cannot classify this.",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := Normalize(llm.Completion{Text: in})
			assert.Equal(t, Fallback(), got)
			assert.True(t, got.Category.Known())
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"Category":"Work","Priority":"Important","RequiresResponse":"Yes"}`,
		`{"category":"school","priority":"normal"}`,
		`{"Category":"Hobbies","RequiresResponse":"No"}`,
		"not json at all",
		"",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Normalize(llm.Completion{Text: in})

			data, err := json.Marshal(once)
			require.NoError(t, err)

			twice := Normalize(llm.Completion{Text: string(data)})
			assert.Equal(t, once, twice)
		})
	}
}

func TestClassification_JSONKeys(t *testing.T) {
	data, err := json.Marshal(Classification{CategoryWork, PriorityImportant, ResponseYes})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Category":"Work","Priority":"Important","RequiresResponse":"Yes"}`, string(data))

	data, err = json.Marshal(Fallback())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Category":"Uncategorized","Priority":"","RequiresResponse":""}`, string(data))
}
