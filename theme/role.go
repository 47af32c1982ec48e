package theme

import (
	"fmt"
	"strings"
)

// Role is what a cursor is used for. The order matches the order of files
// in a Windows cursor scheme.
type Role uint8

const (
	Arrow Role = iota
	Help
	LeftPtrWatch // working in background
	Watch        // busy
	Crosshair
	Text
	Pencil
	Forbidden
	NsResize
	EwResize
	NwseResize
	NeswResize
	Move
	CenterPtr
	Hand

	numRoles
)

type roleInfo struct {
	name string
	// Windows names: the scheme short name, then the registry value name.
	windows [2]string
	// X11 names; the first one is the file, the rest link to it.
	aliases []string
}

var roles = [numRoles]roleInfo{
	Arrow: {"arrow", [2]string{"pointer", "Arrow"},
		[]string{"left_ptr", "arrow", "default", "top_left_arrow"}},
	Help: {"help", [2]string{"help", "Help"},
		[]string{"help", "dnd-ask", "left_ptr_help", "question_arrow", "whats_this",
			"5c6cd98b3f3ebcb1f9c7f1c204630408", "d9ce0ab605698f320427677b458ad60b"}},
	LeftPtrWatch: {"left-ptr-watch", [2]string{"work", "AppStarting"},
		[]string{"left_ptr_watch", "half-busy", "progress",
			"00000000000000020006000e7e9ffc3f", "08e8e1c95fe2fc01f976f1e063a24ccd", "3ecb610c1bf2410f44200f48c40d3599"}},
	Watch: {"watch", [2]string{"busy", "Wait"},
		[]string{"watch", "wait"}},
	Crosshair: {"crosshair", [2]string{"cross", "Crosshair"},
		[]string{"crosshair", "cell", "color-picker", "cross_reverse", "cross", "diamond_cross", "plus", "tcross"}},
	Text: {"text", [2]string{"text", "IBeam"},
		[]string{"xterm", "ibeam", "text", "vertical-text"}},
	Pencil: {"pencil", [2]string{"hand", "NWPen"},
		[]string{"pencil", "draft"}},
	Forbidden: {"forbidden", [2]string{"unavailable", "No"},
		[]string{"not-allowed", "circle", "crossed_circle", "dnd-no-drop", "forbidden", "no-drop", "pirate",
			"03b6e0fcb3499374a867c041f52298f0"}},
	NsResize: {"ns-resize", [2]string{"vert", "SizeNS"},
		[]string{"ns-resize", "bottom_side", "n-resize", "row-resize", "s-resize", "sb_v_double_arrow", "size_ver",
			"split_v", "v_double_arrow", "00008160000006810000408080010102", "2870a09082c103050810ffdffffe0204"}},
	EwResize: {"ew-resize", [2]string{"horz", "SizeWE"},
		[]string{"ew-resize", "col-resize", "e-resize", "h_double_arrow", "left_side", "right_side",
			"sb_h_double_arrow", "size_hor", "split_h", "w-resize",
			"14fef782d02440884392942c11205230", "028006030e0e7ebffc7f7070c0600140"}},
	NwseResize: {"nwse-resize", [2]string{"dgn1", "SizeNWSE"},
		[]string{"nwse-resize", "bottom_right_corner", "nw-resize", "se-resize", "size_fdiag", "top_left_corner",
			"ul_angle", "c7088f0f3e6c8088236ef8e1e3e70000"}},
	NeswResize: {"nesw-resize", [2]string{"dgn2", "SizeNESW"},
		[]string{"nesw-resize", "bd_double_arrow", "bottom_left_corner", "fd_double_arrow", "ne-resize",
			"size_bdiag", "sw-resize", "top_right_corner", "ur_angle", "fcf1c3c7cd4491d801f1e1c78f100000"}},
	Move: {"move", [2]string{"move", "SizeAll"},
		[]string{"fleur", "all-scroll", "closedhand", "dnd-move", "dnd-none", "grab", "grabbing", "move", "size_all",
			"4498f0e0c1937ffe01fd06f973665830", "9081237383d90e509aa00f00170e968f"}},
	CenterPtr: {"center-ptr", [2]string{"alternate", "UpArrow"},
		[]string{"center_ptr", "top_side", "up_arrow", "up-arrow", "right_ptr", "draft_large", "draft_small"}},
	Hand: {"hand", [2]string{"link", "Hand"},
		[]string{"pointer", "alias", "dnd-link", "hand", "hand1", "hand2", "link", "openhand", "pointing_hand",
			"3085a0e285430894940527032f8b26df", "640fb0e74195791501fd1ed57b41487f", "9d800788f1b08800ae810202380a0822",
			"a2a266d0498c3104214a47bd64ab0fc8", "b66166c04f8c3109214a4fbd64a50fc8", "e29285e634086352946a0e7090d73106"}},
}

// Roles lists every role in scheme order.
func Roles() []Role {
	out := make([]Role, numRoles)
	for i := range out {
		out[i] = Role(i)
	}
	return out
}

func (r Role) valid() bool { return r < numRoles }

func (r Role) String() string {
	if !r.valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return roles[r].name
}

// Aliases returns the X11 cursor names of r. The first is the file name.
func (r Role) Aliases() []string {
	if !r.valid() {
		return nil
	}
	return append([]string(nil), roles[r].aliases...)
}

func (r Role) FileName() string {
	if !r.valid() {
		return ""
	}
	return roles[r].aliases[0]
}

// ParseRole accepts a role name, a Windows scheme name ("busy", "dgn1", ...)
// or a Windows registry name ("AppStarting", "SizeNWSE", ...), ignoring case.
// Scheme names take precedence, so "hand" is the pen and "link" the hand.
func ParseRole(s string) (Role, error) {
	for i, info := range roles {
		if strings.EqualFold(s, info.windows[0]) {
			return Role(i), nil
		}
	}
	for i, info := range roles {
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.windows[1]) {
			return Role(i), nil
		}
	}
	for i, info := range roles {
		if strings.EqualFold(s, info.aliases[0]) {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cursor role %q", s)
}
