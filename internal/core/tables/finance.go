package tables

import (
	"github.com/JonMunkholm/tessa/internal/core"
	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/normalize"
	"github.com/JonMunkholm/tessa/internal/reconcile"
	"github.com/JonMunkholm/tessa/internal/source"
)

const GroupFinance = "finance"

// DidNotSupplyFlag marks schools that did not return accounts. It is used
// for flagging, so it is kept as raw text.
const DidNotSupplyFlag = "Did Not Supply flag"

func init() {
	registerSchoolsFinance()
	registerAcademiesFinance()
}

// isFinanceMeasure reports whether a schools finance column came from a coded
// income/expenditure header or a calculated one.
func isFinanceMeasure(c *frame.Column) bool {
	return reconcile.HasCodePrefix(c.Header) || reconcile.HasCalcSuffix(c.Header)
}

func registerSchoolsFinance() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "schools_finance",
			Group: GroupFinance,
			Label: "Maintained schools spend",
			Order: 50,
			Input: "School_total_spend_2022-23_Full_Data_Workbook.xlsx",
		},
		Load: source.Options{Sheet: 3},
		Plan: reconcile.Plan{
			Force:  []string{DidNotSupplyFlag},
			Splits: []reconcile.SplitRule{reconcile.CodePrefix, reconcile.CalcSuffix},
			// This header carries its code at the end instead of the start.
			Aliases: []reconcile.Alias{{From: "Teaching Staff  E01", To: "Teaching Staff"}},
			Kinds: []reconcile.KindRule{{
				Select: frame.Matching(isFinanceMeasure),
				Policy: normalize.Numeric,
			}},
		},
	})
}

// academiesIdentity describes the academy and its trust. Every other column
// of the academies workbook is a financial measure.
var academiesIdentity = []string{
	"URN", "School Name", "Academy UPIN", "LA", "Estab", "LAEstab",
	"Local Authority", "Region", "Company Registration Number", "Trust or Company Name",
	"MAT SAT or Central Services", "Central Services Financial Type",
	"Date joined or opened if in period", "Date left or closed if in period",
	"Period covered by return (months)", DidNotSupplyFlag, "Type", "Academy Type",
	"Overall Phase", "Phase", "Admissions policy", "Has Sixth Form",
	"Has Nursery", "Urban/Rural", "London Weighting", "PFI", "Number of Pupils",
	"Number of pupils in sixth form", "Number of pupils (FTE)",
	"% of pupils eligible for FSM", "% of pupils with SEN support",
	"% of pupils with EHC plan", "% of pupils with English as an additional language",
	"Teachers (FTE)", "Total school workforce (FTE)", "Members of a Trust",
	"Age range", "Ofsted rating",
}

func registerAcademiesFinance() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "academies_finance",
			Group: GroupFinance,
			Label: "Academies financial benchmarking",
			Order: 60,
			Input: "SFB_Academies_2021-22_download.xlsx",
		},
		Load: source.Options{Sheet: 1},
		Plan: reconcile.Plan{
			Kinds: []reconcile.KindRule{{
				Select: frame.Except(academiesIdentity...),
				Policy: normalize.Numeric,
			}},
		},
	})
}
