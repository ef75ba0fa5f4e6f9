package scanner

import (
	"context"
	"testing"

	"merovingian/internal/contract"
)

const modelsSource = `
from typing import Optional
import pydantic
from pydantic import BaseModel


class Invoice(BaseModel):
    """An issued invoice.
    """

    id: int
    amount: float
    currency: str = "EUR"
    note: Optional[str] = None
    lines: list[str]
    totals: dict[str, int]
    parent: "Invoice"
    payer: str | None
    internal = "not annotated"

    def total(self) -> float:
        return self.amount


class Settings(pydantic.BaseModel):
    debug: bool = False


class Plain:
    value: int


class Empty(BaseModel):
    pass


@dataclass_like
class Decorated(BaseModel):
    tag: str


def factory():
    class Inner(BaseModel):
        x: int
    return Inner
`

func TestParseModels(t *testing.T) {
	eps, err := ParseModels(context.Background(), []byte(modelsSource), "src.billing.models", "billing")
	if err != nil {
		t.Fatalf("ParseModels: %v", err)
	}

	wantPaths := []string{
		"src.billing.models.Invoice",
		"src.billing.models.Settings",
		"src.billing.models.Decorated",
		"src.billing.models.Inner",
	}
	if len(eps) != len(wantPaths) {
		t.Fatalf("got %d endpoints, want %d: %+v", len(eps), len(wantPaths), eps)
	}
	for i, p := range wantPaths {
		if eps[i].Path != p {
			t.Errorf("endpoint %d path = %q, want %q", i, eps[i].Path, p)
		}
		if eps[i].Method != contract.MethodSchema {
			t.Errorf("endpoint %d method = %q", i, eps[i].Method)
		}
		if eps[i].RepoName != "billing" {
			t.Errorf("endpoint %d repo = %q", i, eps[i].RepoName)
		}
		if eps[i].RequestSchema != "" {
			t.Errorf("endpoint %d request schema = %q, want empty", i, eps[i].RequestSchema)
		}
	}

	invoice := eps[0]
	if invoice.Summary != "An issued invoice." {
		t.Errorf("summary = %q", invoice.Summary)
	}
	assertFields(t, contract.DecodeFieldTable(invoice.ResponseSchema), contract.FieldTable{
		"id":       {Type: "int", Required: true},
		"amount":   {Type: "float", Required: true},
		"currency": {Type: "str"},
		"note":     {Type: "Optional[str]"},
		"lines":    {Type: "list[str]", Required: true},
		"totals":   {Type: "dict[str, int]", Required: true},
		"parent":   {Type: "Invoice", Required: true},
		"payer":    {Type: "str | None", Required: true},
	})

	assertFields(t, contract.DecodeFieldTable(eps[1].ResponseSchema), contract.FieldTable{
		"debug": {Type: "bool"},
	})
	if eps[1].Summary != "" {
		t.Errorf("Settings summary = %q, want empty", eps[1].Summary)
	}
}

func TestParseModels_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{name: "syntax error", src: []byte("class Broken(BaseModel:\n    x: int\n")},
		{name: "invalid utf-8", src: []byte("class A(BaseModel):\n    x: int  # \xff\xfe\n")},
		{name: "empty", src: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eps, err := ParseModels(context.Background(), tt.src, "m", "r")
			if err != nil {
				t.Fatalf("ParseModels: %v", err)
			}
			if len(eps) != 0 {
				t.Errorf("got %d endpoints, want none", len(eps))
			}
		})
	}
}

func TestParseModels_KeywordBaseIgnored(t *testing.T) {
	src := "class Meta(Base, metaclass=BaseModel):\n    x: int\n"
	eps, err := ParseModels(context.Background(), []byte(src), "m", "r")
	if err != nil {
		t.Fatalf("ParseModels: %v", err)
	}
	if len(eps) != 0 {
		t.Errorf("got %+v, want none", eps)
	}
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{rel: "models.py", want: "models"},
		{rel: "src/app/models.py", want: "src.app.models"},
		{rel: "lib/pkg/__init__.py", want: "lib.pkg.__init__"},
	}
	for _, tt := range tests {
		if got := ModulePath(tt.rel); got != tt.want {
			t.Errorf("ModulePath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestParseModels_EllipsisAndFormatStrings(t *testing.T) {
	src := `
from typing import Tuple
from pydantic import BaseModel

NAME = "x"


class Pair(BaseModel):
    f"Built for {NAME}"
    coords: Tuple[int, ...]


class Plainf(BaseModel):
    f"no placeholders"
    x: int


class Documented(BaseModel):
    "Kept."
    y: int
`
	eps, err := ParseModels(context.Background(), []byte(src), "geo", "geo")
	if err != nil {
		t.Fatalf("ParseModels: %v", err)
	}
	if len(eps) != 3 {
		t.Fatalf("got %d endpoints, want 3: %+v", len(eps), eps)
	}

	summaries := []string{"", "", "Kept."}
	for i, want := range summaries {
		if eps[i].Summary != want {
			t.Errorf("%s summary = %q, want %q", eps[i].Path, eps[i].Summary, want)
		}
	}
	assertFields(t, contract.DecodeFieldTable(eps[0].ResponseSchema), contract.FieldTable{
		"coords": {Type: "Tuple[int, Ellipsis]", Required: true},
	})
}
