package validate_test

import (
	"testing"

	"github.com/ardanlabs/doublespend/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Check(t *testing.T) {
	type model struct {
		Name  string  `json:"name" validate:"required"`
		Share float64 `json:"share" validate:"gte=0,lte=1"`
	}

	t.Log("Given the need to validate models against their tags.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the model breaks two rules.", testID)
		{
			err := validate.Check(model{Share: 2})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

			fields := validate.GetFieldErrors(err).Fields()
			if _, exists := fields["name"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould use the json name of the field: %v", failed, testID, fields)
			}
			if _, exists := fields["share"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report the share field: %v", failed, testID, fields)
			}
			t.Logf("\t%s\tTest %d:\tShould use the json names of the fields.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking ids.", testID)
		{
			if err := validate.CheckID(validate.GenerateID()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a generated id: %v", failed, testID, err)
			}
			if err := validate.CheckID("abc"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould check ids.", success, testID)
		}
	}
}
