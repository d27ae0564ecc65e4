package components

import twmerge "github.com/Oudwins/tailwind-merge-go"

// Classes joins class lists and resolves Tailwind conflicts so later lists
// win: Classes("border-hypes-gray-200", "border-red-500") keeps only the red
// border.
func Classes(lists ...string) string {
	return twmerge.Merge(lists...)
}

// InputClass is the class list of a text input, with the error border when
// invalid.
func InputClass(invalid bool, extra ...string) string {
	lists := append([]string{
		"h-12 w-full rounded-md border border-hypes-gray-200 bg-white px-3 py-2 text-sm",
		"focus:outline-none focus:ring-2 focus:ring-hypes-green",
	}, extra...)
	if invalid {
		lists = append(lists, "border-red-500 focus:ring-red-500")
	}
	return Classes(lists...)
}
