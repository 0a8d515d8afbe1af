package tables

import (
	"strings"

	"github.com/JonMunkholm/tessa/internal/core"
	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/normalize"
	"github.com/JonMunkholm/tessa/internal/reconcile"
	"github.com/JonMunkholm/tessa/internal/rollup"
	"github.com/JonMunkholm/tessa/internal/source"
)

const (
	GroupAttainment = "attainment"

	attainmentDir = "attainment-2022-2023"
)

func init() {
	registerSchoolsAttainment()
	registerSchoolsAttainmentLabels()
	registerAcademiesAttainment()
	registerAcademiesAttainmentLabels()
}

// schoolsIdentity are the KS2 columns describing the school rather than its
// results. They are read as text; roll-up rows leave the codes blank.
var schoolsIdentity = []string{
	"ALPHAIND", "LEA", "ESTAB", "URN", "SCHNAME", "ADDRESS1", "ADDRESS2",
	"ADDRESS3", "TOWN", "PCODE", "TELNUM", "PCON_CODE", "PCON_NAME", "URN_AC",
	"SCHNAME_AC", "OPEN_AC", "NFTYPE", "ICLOSE", "RELDENOM", "AGERANGE",
	"TAB15", "TAB1618", "TOTPUPS", "TPUPYEAR",
}

// schoolsDescriptions are free-text progress banding columns.
var schoolsDescriptions = []string{"READPROG_DESCR", "WRITPROG_DESCR", "MATPROG_DESCR"}

func isDescription(c *frame.Column) bool { return strings.HasSuffix(c.Name, "_DESCR") }

// isPercentHeader selects the columns loaded as text for percent parsing.
func isPercentHeader(h string) bool {
	return normalize.ClassifyByPrefix(h) == frame.KindPercent
}

func registerSchoolsAttainment() {
	schema := source.Strings(schoolsIdentity...).
		With(frame.TypeString, schoolsDescriptions...).
		With(frame.TypeInt, rollup.RecTypeColumn)

	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "schools_attainment",
			Group: GroupAttainment,
			Label: "Schools KS2 attainment",
			Order: 10,
			Input: attainmentDir + "/england_ks2revised.csv",
		},
		Load: source.Options{Schema: schema, Text: isPercentHeader},
		Plan: reconcile.Plan{
			Kinds: []reconcile.KindRule{{
				Select: frame.Minus(frame.From("TOTPUPS"), frame.Matching(isDescription)),
				Policy: normalize.ClassifyByPrefix,
			}},
		},
		Filter:       rollup.FilterRollups,
		IntCasts:     []string{"ALPHAIND", "LEA", "ESTAB", "URN"},
		NumericCasts: []string{"URN_AC"},
	})
}

func registerSchoolsAttainmentLabels() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "schools_attainment_labels",
			Group: GroupAttainment,
			Label: "Schools KS2 field labels",
			Order: 20,
			Input: attainmentDir + "/ks2_meta.csv",
		},
	})
}

// academiesInt are the MAT performance columns that always hold whole numbers.
var academiesInt = []string{
	"TIME_PERIOD", "TRUST_UID", "TRUST_COMPANIES_HOUSE_NUMBER", "TRUST_UKPRN",
	"NUMINST_MATPTINC", "NUMINST_FSM6CLA1A_MATPTINC", "NUMINST_CONVERTER_MATPTINC",
	"NUMINST_SPONSOR_MATPTINC", "NUMINST_FREE_MATPTINC", "NUMINST_3_MATPTINC",
	"NUMINST_4PLUS_MATPTINC", "TELIG_MATPTINC",
	"NUMINST_INMAT", "NUMINST_CONVERTER_INMAT", "NUMINST_SPONSOR_INMAT",
	"NUMINST_FREE_INMAT", "TELIG_INMAT",
}

var academiesText = []string{
	"TIME_IDENTIFIER", "TRUST_GROUP_TYPE", "TRUST_NAME", "TRUST_ID",
	"TRUST_LEADREGION", "INSTITUTIONS_MATPTINC", "INSTITUTIONS_INMAT",
	"READ_PROGSCORE_BANDING", "WRIT_PROGSCORE_BANDING", "MAT_PROGSCORE_BANDING",
}

func registerAcademiesAttainment() {
	schema := source.Strings(academiesText...).
		With(frame.TypeInt, academiesInt...).
		With(frame.TypeFloat, "KS1APS_MATPTINC")

	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "academies_attainment",
			Group: GroupAttainment,
			Label: "Multi-academy trust KS2 attainment",
			Order: 30,
			Input: attainmentDir + "/england_ks2-mats-performance.csv",
		},
		Load: source.Options{Schema: schema, Encoding: "latin-1", Text: isPercentHeader},
		Plan: reconcile.Plan{
			Kinds: []reconcile.KindRule{{
				Select: frame.Union(
					frame.Between("NUMINST_FSM6CLA1A_MATPTINC", "PRWM_EXP_WGTAVG_NOTFSM6CLA1A"),
					frame.From("INSTITUTIONS_INMAT"),
				),
				Policy: normalize.ClassifyByPrefix,
			}},
		},
	})
}

func registerAcademiesAttainmentLabels() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "academies_attainment_labels",
			Group: GroupAttainment,
			Label: "Multi-academy trust KS2 field labels",
			Order: 40,
			Input: attainmentDir + "/ks2-mats-performance_meta.csv",
		},
		Plan: reconcile.Plan{
			// Match the schools metadata headings.
			Aliases: []reconcile.Alias{
				{From: "Metafile heading", To: "Field Name"},
				{From: "Metafile description", To: "Label/Description"},
			},
			Drop: []string{"2019 field name", "new for 2023"},
		},
	})
}
