package microlog

import "reflect"

// typeOf names an error's dynamic Go type, e.g. "*errors.errorString" or
// "*os.PathError", for the Exception.Type field.
func typeOf(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return ""
	}
	return t.String()
}
