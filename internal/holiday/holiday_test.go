package holiday

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"workdays/pkg/workdays"
)

func h(date, name string) Holiday {
	return Holiday{Date: workdays.MustParseDate(date), Name: name}
}

func TestReadCSV(t *testing.T) {
	in := "date,holiday_name\n2021-01-01,元日\n2021-01-11,成人の日\n\n2021-02-11\n"
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []Holiday{h("2021-01-01", "元日"), h("2021-01-11", "成人の日"), h("2021-02-11", "")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVBadDate(t *testing.T) {
	in := "2021-01-01,a\n2021/01/02,b\n"
	if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, workdays.ErrInvalidArgument) {
		t.Errorf("ReadCSV err = %v, want ErrInvalidArgument", err)
	}
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source", "holidays.csv")
	hs := []Holiday{h("2020-12-31", "x"), h("2021-01-01", "元日"), h("2022-01-01", "元日")}
	if err := WriteCSVFile(path, hs); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "2020-12-31,x\n") {
		t.Errorf("file starts %q, want header-less rows", data)
	}

	src := &CSVSource{Path: path}
	got, err := src.Holidays(context.Background(), 2021, 2021)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if diff := cmp.Diff([]Holiday{h("2021-01-01", "元日")}, got); diff != "" {
		t.Errorf("Holidays mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	if err := WriteCSVFile(first, []Holiday{h("2021-01-01", "from a")}); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSVFile(second, []Holiday{h("2021-01-01", "from b"), h("2020-05-05", "b only")}); err != nil {
		t.Fatal(err)
	}

	sources := []Source{
		&CSVSource{Path: first},
		&CSVSource{Path: filepath.Join(dir, "missing.csv")},
		&CSVSource{Path: second},
		&Static{List: []Holiday{h("2021-03-03", "added")}},
	}
	got, err := Merge(context.Background(), nil, sources, 0, 0)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []Holiday{h("2020-05-05", "b only"), h("2021-01-01", "from a"), h("2021-03-03", "added")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Holidays(context.Context, int, int) ([]Holiday, error) {
	return nil, errors.New("boom")
}

func TestMergeError(t *testing.T) {
	if _, err := Merge(context.Background(), nil, []Source{failingSource{}}, 2021, 2021); err == nil {
		t.Fatal("Merge should fail when a source fails")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Holiday{h("2021-11-23", "Labor, Thanksgiving")}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "2021-11-23,\"Labor, Thanksgiving\"\n" {
		t.Errorf("WriteCSV = %q", got)
	}
}
