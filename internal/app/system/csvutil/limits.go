// internal/app/system/csvutil/limits.go
package csvutil

// MaxExportRows caps a single suggestions export. Rows past the cap are
// dropped and the export is reported as incomplete.
const MaxExportRows = 50000
