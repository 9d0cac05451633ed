// Package flash stores one-shot signals in the visitor's session: a success
// flag after a save, validation errors keyed by field, and the submitted
// input for redisplay. Every value is cleared the first time it is read.
package flash

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Error bags keep workshop form errors apart from other forms rendered on
// the same page.
const (
	BagWorkshop = "workshop"
	BagDefault  = "default"
)

const (
	keySuccess = "flash.success"
	keyErrors  = "flash.errors."
	keyOld     = "flash.old"
)

func init() {
	gob.Register(map[string]string{})
}

// PutSuccess records a success signal for the next rendered page.
func PutSuccess(c *gin.Context) error {
	s := sessions.Default(c)
	s.Set(keySuccess, true)
	return s.Save()
}

// Success reads and clears the success signal.
func Success(c *gin.Context) bool {
	s := sessions.Default(c)
	v, _ := s.Get(keySuccess).(bool)
	if v {
		s.Delete(keySuccess)
		_ = s.Save()
	}
	return v
}

// PutErrors records field errors under the named bag.
func PutErrors(c *gin.Context, bag string, errs map[string]string) error {
	s := sessions.Default(c)
	s.Set(keyErrors+bag, errs)
	return s.Save()
}

// Errors reads and clears the field errors for the named bag.
func Errors(c *gin.Context, bag string) map[string]string {
	s := sessions.Default(c)
	errs, _ := s.Get(keyErrors + bag).(map[string]string)
	if errs != nil {
		s.Delete(keyErrors + bag)
		_ = s.Save()
	}
	return errs
}

// PutOld preserves submitted input so a failed form can be redisplayed
// filled in.
func PutOld(c *gin.Context, fields map[string]string) error {
	s := sessions.Default(c)
	s.Set(keyOld, fields)
	return s.Save()
}

// Old reads and clears the preserved input.
func Old(c *gin.Context) map[string]string {
	s := sessions.Default(c)
	old, _ := s.Get(keyOld).(map[string]string)
	if old != nil {
		s.Delete(keyOld)
		_ = s.Save()
	}
	return old
}
