// Package catalog holds the static reference tables the pipeline depends on:
// the account taxonomy of the regulator's unified chart of accounts, the
// indicator taxonomy, the known entity-name corrections and the ignore list.
// Everything here is immutable data loaded once and injected into components;
// nothing mutates it at runtime.
package catalog

// ValidLevel1 is the set of single-digit account codes that may act as roots
// of the account hierarchy. Codes 8 and 9 (contingent and order accounts in
// some extracts) are deliberately excluded from navigation.
func ValidLevel1() map[string]bool {
	return map[string]bool{
		"1": true, "2": true, "3": true, "4": true,
		"5": true, "6": true, "7": true,
	}
}

// BalanceAccounts maps headline balance-sheet concepts to their account codes
// in the unified chart of accounts.
var BalanceAccounts = map[string]string{
	// Assets (code 1)
	"activo_total":        "1",
	"fondos_disponibles":  "11",
	"inversiones":         "13",
	"cartera_creditos":    "14",
	"cuentas_por_cobrar":  "16",
	"activos_fijos":       "18",
	"otros_activos":       "19",
	// Liabilities (code 2)
	"pasivo_total":             "2",
	"obligaciones_publico":     "21",
	"cuentas_por_pagar":        "25",
	"obligaciones_financieras": "26",
	// Equity (code 3)
	"patrimonio":     "3",
	"capital_social": "31",
	"reservas":       "33",
	"resultados":     "36",
}

// CarteraAccounts maps loan-portfolio concepts to their 4-digit subaccounts.
var CarteraAccounts = map[string]string{
	"cartera_comercial":    "1401",
	"cartera_consumo":      "1402",
	"cartera_vivienda":     "1403",
	"cartera_microcredito": "1404",
	"cartera_educativo":    "1405",
	"cartera_vencida":      "1421",
	"provision_cartera":    "1499",
}

// IncomeStatementAccounts labels the level-1 and level-2 income-statement
// accounts. Expense accounts carry prefix 4, income accounts prefix 5.
var IncomeStatementAccounts = map[string]string{
	// Income (code 5)
	"5":  "INGRESOS",
	"51": "INTERESES Y DESCUENTOS GANADOS",
	"52": "COMISIONES GANADAS",
	"53": "UTILIDADES FINANCIERAS",
	"54": "INGRESOS POR SERVICIOS",
	"55": "OTROS INGRESOS OPERACIONALES",
	"56": "OTROS INGRESOS",
	// Expenses (code 4)
	"4":  "GASTOS",
	"41": "INTERESES CAUSADOS",
	"42": "COMISIONES CAUSADAS",
	"43": "PERDIDAS FINANCIERAS",
	"44": "PROVISIONES",
	"45": "GASTOS DE OPERACION",
	"46": "OTRAS PERDIDAS OPERACIONALES",
	"47": "OTROS GASTOS Y PERDIDAS",
	"48": "IMPUESTOS Y PARTICIPACION A EMPLEADOS",
}

// IncomeStatementPrefixes are the account-code prefixes that select
// income-statement rows out of a mixed extract.
var IncomeStatementPrefixes = []string{"4", "5"}
