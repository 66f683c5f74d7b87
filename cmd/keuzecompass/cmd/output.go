package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"keuzecompass/internal/domain/admin"
	"keuzecompass/internal/domain/vkm"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printModuleTable(w io.Writer, modules []vkm.Module) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAAM\tLOCATIE\tNIVEAU\tEC\tACTIEF\tFAVORIET")
	for _, m := range modules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.Name, m.Location, m.Level, m.StudyCredit, yesNo(m.IsActive), star(m.IsFavorited))
	}
	tw.Flush()
}

func printModule(w io.Writer, m *vkm.Module) {
	fmt.Fprintf(w, "%s %s\n", m.Name, star(m.IsFavorited))
	fmt.Fprintf(w, "  %s\n\n", m.ShortDescription)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  id:\t%s\n", m.ID)
	fmt.Fprintf(tw, "  locatie:\t%s\n", m.Location)
	fmt.Fprintf(tw, "  niveau:\t%s\n", m.Level)
	fmt.Fprintf(tw, "  studiepunten:\t%d\n", m.StudyCredit)
	fmt.Fprintf(tw, "  actief:\t%s\n", yesNo(m.IsActive))
	tw.Flush()
	if m.Description != "" {
		fmt.Fprintf(w, "\n%s\n", m.Description)
	}
	if m.LearningOutcomes != "" {
		fmt.Fprintf(w, "\nLeeruitkomsten:\n%s\n", m.LearningOutcomes)
	}
}

func printUserTable(w io.Writer, users []admin.AdminUser) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGEBRUIKERSNAAM\tEMAIL\tROL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	tw.Flush()
}

func printUser(w io.Writer, u *admin.UserWithFavorites) {
	fmt.Fprintf(w, "%s <%s>\n  id:  %s\n  rol: %s\n", u.Username, u.Email, u.ID, u.Role)
	if len(u.FavoriteVKMs) == 0 {
		fmt.Fprintln(w, "\nGeen favoriete modules.")
		return
	}
	fmt.Fprintln(w, "\nFavoriete modules:")
	for _, f := range u.FavoriteVKMs {
		fmt.Fprintf(w, "  %s  %s - %s\n", f.ID, f.Name, f.ShortDescription)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "ja", "yes":
		return true, nil
	case "nee", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q: want true or false", s)
	}
	return b, nil
}

func yesNo(b bool) string {
	if b {
		return "ja"
	}
	return "nee"
}

func star(b bool) string {
	if b {
		return "*"
	}
	return ""
}
