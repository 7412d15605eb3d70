package web

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

type Cell struct {
	Text  string
	URL   string
	Badge string
}

type Action struct {
	Label   string
	URL     string
	Post    bool
	Confirm string
	Style   string
}

type Row struct {
	Cells   []Cell
	Actions []Action
}

type Table struct {
	Columns []string
	Rows    []Row
	Footer  []Cell
	Empty   string
}

func (t Table) HasActions() bool {
	for _, r := range t.Rows {
		if len(r.Actions) > 0 {
			return true
		}
	}
	return false
}

func (t Table) Span() int {
	return len(t.Columns) + 1
}

type ListView struct {
	Heading string
	AddURL  string
	Filters []Field
	Exports []Action
	Stats   []Stat
	Table   Table
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Field struct {
	Name        string
	Label       string
	Type        string
	Value       string
	Placeholder string
	Help        string
	Step        string
	Error       string
	Required    bool
	Options     []Option
}

type FormView struct {
	Heading string
	Intro   string
	Action  string
	Submit  string
	Cancel  string
	Error   string
	Fields  []Field
}

type Pair struct {
	Label string
	Value string
}

type Stat struct {
	Label string
	Value string
	Badge string
	URL   string
}

type Section struct {
	Heading string
	Form    *FormView
	Table   Table
}

type DetailView struct {
	Heading  string
	Actions  []Action
	Stats    []Stat
	Pairs    []Pair
	Sections []Section
}

// Bind copies field errors into the matching fields. Errors without a
// matching field become the form error.
func (f *FormView) Bind(errs validation.Errors) {
	for _, fe := range errs {
		matched := false
		for i := range f.Fields {
			if f.Fields[i].Name == fe.Field {
				if f.Fields[i].Error == "" {
					f.Fields[i].Error = fe.Message
				}
				matched = true
				break
			}
		}
		if !matched && f.Error == "" {
			f.Error = fe.Message
		}
	}
}

func TextField(name, label, value string, required bool) Field {
	return Field{Name: name, Label: label, Type: "text", Value: value, Required: required}
}

func TextArea(name, label, value string) Field {
	return Field{Name: name, Label: label, Type: "textarea", Value: value}
}

func NumberField(name, label string, value int, required bool) Field {
	return Field{Name: name, Label: label, Type: "number", Value: strconv.Itoa(value), Required: required}
}

func DateField(name, label, value string, required bool) Field {
	return Field{Name: name, Label: label, Type: "date", Value: value, Required: required}
}

func PasswordField(name, label string, required bool) Field {
	return Field{Name: name, Label: label, Type: "password", Required: required}
}

func HiddenField(name, value string) Field {
	return Field{Name: name, Type: "hidden", Value: value}
}

func SelectField(name, label string, options []Option, required bool) Field {
	return Field{Name: name, Label: label, Type: "select", Options: options, Required: required}
}

// IDOptions builds select options from id/label pairs with a leading blank.
func IDOptions(items []models.Option, selected int, blank string) []Option {
	options := make([]Option, 0, len(items)+1)
	if blank != "" {
		options = append(options, Option{Value: "0", Label: blank, Selected: selected == 0})
	}
	for _, item := range items {
		options = append(options, Option{
			Value:    strconv.Itoa(item.ID),
			Label:    item.Label,
			Selected: item.ID == selected,
		})
	}
	return options
}

// ValueOptions builds select options from values that are also their labels.
func ValueOptions(values []string, labels []string, selected string) []Option {
	options := make([]Option, 0, len(values))
	for i, v := range values {
		label := v
		if i < len(labels) {
			label = labels[i]
		}
		options = append(options, Option{Value: v, Label: label, Selected: v == selected})
	}
	return options
}

func EditAction(url string) Action {
	return Action{Label: "Edit", URL: url}
}

func DeleteAction(url, confirm string) Action {
	return Action{Label: "Delete", URL: url, Post: true, Confirm: confirm, Style: "danger"}
}

func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Dash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(validation.DateLayout)
}

func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func IDString(id *int) int {
	if id == nil {
		return 0
	}
	return *id
}

// Money formats an amount with two decimals and thousands separators.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	grouped := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, intPart[i])
	}
	return sign + string(grouped) + frac
}
