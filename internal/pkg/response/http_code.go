package response

// Code is the business status carried in every response envelope.
type Code string

const (
	CodeSuccess       Code = "success"
	CodeFail          Code = "fail"
	CodeNotFound      Code = "not_found"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeValidateError Code = "validate_error"
)

// String implements fmt.Stringer
func (c Code) String() string {
	return string(c)
}
