package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"co2etl/internal/numeric"
	"co2etl/internal/record"
)

func sample() []record.Record {
	r := record.Record{Entity: "Country A", Year: 2001}
	r.Sectors[0] = numeric.Of(100)
	r.Total = numeric.Of(100)
	r.Population = numeric.Of(50)
	r.PerCapita = numeric.Of(2)
	r.PerGDP = numeric.NaN()
	r.GDP = numeric.Of(0)

	z := record.Record{Entity: "Zed, The", Year: 2002}
	return []record.Record{r, z}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d; want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "entity,year,carbon_dioxide_emissions_from_buildings,") ||
		!strings.HasSuffix(lines[0], ",total_emissions,population,gdp,emissions_per_capita,emissions_per_gdp") {
		t.Fatalf("header = %s", lines[0])
	}
	if want := "Country A,2001,100.0,,,,,,,,,100.0,50.0,0.0,2.0,NaN"; lines[1] != want {
		t.Fatalf("row 1 = %s; want %s", lines[1], want)
	}
	if want := `"Zed, The",2002,,,,,,,,,,,,,,`; lines[2] != want {
		t.Fatalf("row 2 = %s; want %s", lines[2], want)
	}
}

func TestWriteFileAtomicAndStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	first, err := WriteFile(path, sample())
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b1, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	second, err := WriteFile(path, sample())
	if err != nil {
		t.Fatalf("WriteFile (rerun): %v", err)
	}
	b2, _ := os.ReadFile(path)

	if !bytes.Equal(b1, b2) {
		t.Fatalf("rerun changed bytes")
	}
	if first.Fingerprint != second.Fingerprint || first.Bytes != int64(len(b1)) || first.Rows != 2 {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}

	fp, err := Fingerprint(sample())
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp != first.Fingerprint {
		t.Fatalf("Fingerprint = %s; WriteFile = %s", FingerprintHex(fp), FingerprintHex(first.Fingerprint))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("leftover files in %s: %v", dir, entries)
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope", "out.csv")
	if _, err := WriteFile(path, sample()); err == nil {
		t.Fatalf("expected error for missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("output exists after failure: %v", err)
	}
}

func TestFingerprintHex(t *testing.T) {
	t.Parallel()

	if got := FingerprintHex(0xabc); got != "0000000000000abc" {
		t.Fatalf("FingerprintHex = %s", got)
	}
}
