package table_test

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

func TestParseExactRows(t *testing.T) {
	RegisterTestingT(t)

	tbl, err := table.Parse("Fecha\tEmpresa\tObservaciones\n2026-01-02\tAcme\tok\n2026-01-03\tBeta\t\n")
	Expect(err).To(BeNil())
	Expect(tbl.Headers).To(Equal([]string{"Fecha", "Empresa", "Observaciones"}))
	Expect(tbl.Rows).To(Equal([][]string{
		{"2026-01-02", "Acme", "ok"},
		{"2026-01-03", "Beta", ""},
	}))
}

func TestParseMultiLineCell(t *testing.T) {
	RegisterTestingT(t)

	text := "Fecha\tEmpresa\tLocalidad\tObservaciones\r\n" +
		"2026-01-02\tAcme\tMalagón\tfirst line\r\n" +
		"second line\r\n" +
		"\r\n" +
		"2026-01-01\tBeta\tToledo\tsingle\r\n"
	tbl, err := table.Parse(text)
	Expect(err).To(BeNil())
	Expect(tbl.Rows).To(HaveLen(2))
	Expect(tbl.Rows[0][3]).To(Equal("first line\nsecond line"))
	Expect(tbl.Rows[1]).To(Equal([]string{"2026-01-01", "Beta", "Toledo", "single"}))
}

func TestParseOverflowJoinsIntoLastColumn(t *testing.T) {
	RegisterTestingT(t)

	tbl, err := table.Parse("Fecha\tEmpresa\tObservaciones\n2026-01-02\tAcme\ta\tb\tc\n")
	Expect(err).To(BeNil())
	Expect(tbl.Rows).To(Equal([][]string{{"2026-01-02", "Acme", "a\tb\tc"}}))
}

func TestParseShortFirstRowIsPadded(t *testing.T) {
	RegisterTestingT(t)

	tbl, err := table.Parse("Fecha\tEmpresa\tObservaciones\n2026-01-02\n")
	Expect(err).To(BeNil())
	Expect(tbl.Rows).To(Equal([][]string{{"2026-01-02", "", ""}}))
}

func TestParseSkipsPreamble(t *testing.T) {
	RegisterTestingT(t)

	tbl, err := table.Parse("Listado de registros\n\nFecha\tEmpresa\n2026-01-02\tAcme")
	Expect(err).To(BeNil())
	Expect(tbl.Headers).To(Equal([]string{"Fecha", "Empresa"}))
	Expect(tbl.Rows).To(HaveLen(1))
}

func TestParseWithoutTabs(t *testing.T) {
	RegisterTestingT(t)

	_, err := table.Parse("just some text\nwithout tabs")
	Expect(err).To(Equal(table.ErrNoTable))
}

func TestLooksLikeTable(t *testing.T) {
	RegisterTestingT(t)

	Expect(table.LooksLikeTable("Fecha\tEmpresa\n2026-01-01\tA")).To(BeTrue())
	Expect(table.LooksLikeTable("  FECHA\tEMPRESA")).To(BeTrue())
	Expect(table.LooksLikeTable("Date\tCompany")).To(BeTrue())
	Expect(table.LooksLikeTable("Fecha Empresa\n2026\tA")).To(BeFalse())
	Expect(table.LooksLikeTable("Name\tValue")).To(BeFalse())
	Expect(table.LooksLikeTable("")).To(BeFalse())
}

func TestColumnLookup(t *testing.T) {
	RegisterTestingT(t)

	tbl := table.Table{Headers: []string{"FECHA", " Ubicacion ", "Total horas", "Horas"}}
	Expect(tbl.Index("Fecha")).To(Equal(0))
	Expect(tbl.Index("Ubicación")).To(Equal(1))
	Expect(tbl.Index("missing", "horas")).To(Equal(3))
	Expect(tbl.Index("missing")).To(Equal(-1))

	row := []string{"2026-01-01", "Nave 2", "  ", "7,5"}
	Expect(tbl.Value(row, "Total horas", "Horas")).To(Equal("7,5"))
	Expect(tbl.Value(row, "Ubicación", "Ubicacion")).To(Equal("Nave 2"))
	Expect(tbl.Value(row[:1], "Horas")).To(Equal(""))
}

func TestParseDecimalHours(t *testing.T) {
	RegisterTestingT(t)

	tests := map[string]float64{
		"08:30 = 8,50 h": 8.5,
		"=7.25":          7.25,
		"7,5":            7.5,
		"7.5 h":          7.5,
		"09:45":          9.75,
		"9 : 15":         9.25,
		"8":              8,
		"8 h":            8,
		"":               0,
		"n/a":            0,
		"= 1.234,5 h":    1234.5,
	}
	for in, want := range tests {
		Expect(table.ParseDecimalHours(in)).To(BeNumerically("~", want, 1e-9), "input %q", in)
	}
}

func TestBuildTSVEscapesCells(t *testing.T) {
	RegisterTestingT(t)

	out := table.BuildTSV(nil)
	Expect(strings.Split(out, "\n")).To(HaveLen(1))
	Expect(out).To(HavePrefix("Fecha\tEmpresa\tLocalidad\tUbicación"))
}
