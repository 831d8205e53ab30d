package workbook

import (
	"regexp"

	"github.com/xuri/excelize/v2"
)

// addressPattern accepts upper-case column letters followed by a row number
// without a leading zero.
var addressPattern = regexp.MustCompile(`^[A-Z]+[1-9][0-9]*$`)

// ValidateAddress checks that addr is an A1-style cell reference such as
// "A1" or "AB23". Lower-case letters, leading zeros and "$" anchors are
// rejected, as are references beyond XFD1048576.
func ValidateAddress(addr string) error {
	_, _, err := ParseAddress(addr)
	return err
}

// ParseAddress returns the 1-based column and row of addr.
func ParseAddress(addr string) (col, row int, err error) {
	if addr == "" {
		return 0, 0, newError(KindValidation, "address", "", "cell address must be a non-empty string")
	}
	if !addressPattern.MatchString(addr) {
		return 0, 0, newError(KindValidation, "address", "", "invalid cell reference %q", addr)
	}
	col, row, err = excelize.CellNameToCoordinates(addr)
	if err != nil {
		return 0, 0, wrapError(KindValidation, "address", "", err, "invalid cell reference %q", addr)
	}
	return col, row, nil
}

// FormatAddress is the inverse of ParseAddress.
func FormatAddress(col, row int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", wrapError(KindValidation, "address", "", err, "invalid coordinates (%d, %d)", col, row)
	}
	return name, nil
}
