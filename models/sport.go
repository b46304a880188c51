package models

// Sport определяет вид спорта матча. Правило golden point доступно только для падела.
type Sport string

const (
	SportTennis Sport = "tennis"
	SportPadel  Sport = "padel"
)

func (s Sport) Valid() bool {
	switch s {
	case SportTennis, SportPadel:
		return true
	}
	return false
}
