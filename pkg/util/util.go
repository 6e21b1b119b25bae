package util

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// error

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s", e.msg)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

var (
	ErrInternalServerError = errors.New("internal Server Error")
	ErrNotFound            = errors.New("your requested Item is not found")
	ErrConflict            = errors.New("your Item already exist")
	ErrBadParamInput       = errors.New("given Param is not valid")

	// routing taxonomy. InvalidNode covers reads referencing an unknown
	// node id, InvalidMutation covers AddEdge/RemoveEdge doing the same.
	ErrInvalidNode     = errors.New("unknown node id")
	ErrInvalidMutation = errors.New("edge mutation references unknown node id")
)

var MessageInternalServerError string = "internal server error"

// CodeOf unwraps the sentinel code from an error produced by WrapErrorf.
// Returns ErrInternalServerError when err carries no code.
func CodeOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return ErrInternalServerError
}

func Abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func DegreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func RadiansToDegree(rad float64) float64 {
	return 180.0 * rad / math.Pi
}

func StringToFloat64(str string) (float64, error) {
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return val, nil
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy )
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ReadLine reads one full line from r, joining continuation fragments of
// lines longer than the reader buffer.
func ReadLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		fragment, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		sb.Write(fragment)
		if !isPrefix {
			break
		}
	}
	return sb.String(), nil
}

