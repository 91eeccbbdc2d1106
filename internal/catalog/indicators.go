package catalog

// Indicator describes one regulatory ratio in the stable taxonomy: its short
// code, the display label the dashboard shows, and the analytical category it
// belongs to.
type Indicator struct {
	Code     string
	Label    string
	Category string
}

// Indicator categories.
const (
	CategoryCapital        = "C - Capital"
	CategoryAssetQuality   = "A - Calidad de Activos"
	CategoryDelinquency    = "A - Morosidad"
	CategoryCoverage       = "A - Cobertura"
	CategoryManagement     = "M - Management"
	CategoryEarnings       = "E - Earnings"
	CategoryLiquidity      = "L - Liquidez"
	CategoryVulnerability  = "V - Vulnerabilidad"
)

// IndicatorMarkerFields identifies the pivot-cache data block that carries
// regulatory ratios. The block's internal numbering moves around between
// years, so detection is by field names: a cache whose definition contains at
// least IndicatorMarkerMin of these is the ratio block.
var IndicatorMarkerFields = []string{
	"I28_ROE",
	"I29_ROA",
	"I1_suficiencia_patrimonial",
}

// IndicatorMarkerMin is the minimum number of marker fields required for a
// positive match.
const IndicatorMarkerMin = 2

// IndicatorTaxonomy maps source pivot-cache field names to the stable
// indicator taxonomy. Fields absent from this table are dropped during
// extraction. Values are ratios as published, never percentages.
var IndicatorTaxonomy = map[string]Indicator{
	// C - Capital
	"I1_suficiencia_patrimonial": {"SUF_PAT", "(Patrimonio + Resultados) / Activos Inmovilizados", CategoryCapital},

	// A - Asset quality
	"I2_prop_act_impr_net":      {"ACT_IMPR", "Activos Improductivos Netos / Total Activos", CategoryAssetQuality},
	"I3_prop_act_prod_net":      {"ACT_PROD", "Activos Productivos / Total Activos", CategoryAssetQuality},
	"I4_uti_pas_cost_prod_gene": {"AP_PC", "Activos Productivos / Pasivos con Costo", CategoryAssetQuality},
	"I42_Cart_cred_ref_xven":    {"CART_REF", "Carteras de Créditos Refinanciadas", CategoryAssetQuality},
	"I43_Cart_cred_reest":       {"CART_REEST", "Carteras de Créditos Reestructuradas", CategoryAssetQuality},
	"I44_cartera_x_vencer":      {"CART_VENCER", "Cartera por Vencer Total", CategoryAssetQuality},

	// A - Delinquency
	"I5_Moros_carte":          {"MOR_TOT", "Morosidad Total", CategoryDelinquency},
	"Moros_carte_consu":       {"MOR_CONS", "Morosidad Consumo", CategoryDelinquency},
	"I8_Moros_carte_inmob":    {"MOR_INMOB", "Morosidad Inmobiliaria", CategoryDelinquency},
	"I9_Moros_carte_micro":    {"MOR_MICRO", "Morosidad Microcrédito", CategoryDelinquency},
	"I10_Moros_carte_produ":   {"MOR_PROD", "Morosidad Productivo", CategoryDelinquency},
	"I13_Moros_carte_vivi_ip": {"MOR_VIV_IP", "Morosidad Vivienda Interés Público", CategoryDelinquency},
	"I14_Moros_carte_educ":    {"MOR_EDU", "Morosidad Educativo", CategoryDelinquency},

	// A - Coverage
	"I15_Cober_carte":         {"COB_TOT", "Cobertura Total", CategoryCoverage},
	"Cober_carte_consu":       {"COB_CONS", "Cobertura Consumo", CategoryCoverage},
	"I18_Cober_carte_inmob":   {"COB_INMOB", "Cobertura Inmobiliaria", CategoryCoverage},
	"I19_Cober_carte_micro":   {"COB_MICRO", "Cobertura Microcrédito", CategoryCoverage},
	"I20_Cober_carte_produ":   {"COB_PROD", "Cobertura Productivo", CategoryCoverage},
	"I23_Cober_carte_vivi_ip": {"COB_VIV_IP", "Cobertura Vivienda Interés Público", CategoryCoverage},
	"I24_Cober_carte_educ":    {"COB_EDU", "Cobertura Educativo", CategoryCoverage},

	// M - Management
	"I25_Efici_opera":    {"GO_ACT", "Gastos Operación / Activo Promedio", CategoryManagement},
	"I26_Grad_abso":      {"GO_MNF", "Gastos Operación / Margen Financiero", CategoryManagement},
	"I27_Efic_adm_pers":  {"GP_ACT", "Gastos Personal / Activo Promedio", CategoryManagement},

	// E - Earnings
	"I28_ROE":                    {"ROE", "ROE", CategoryEarnings},
	"I29_ROA":                    {"ROA", "ROA", CategoryEarnings},
	"I30_Interm_fin":             {"INTERM", "Intermediación Financiera", CategoryEarnings},
	"I31_Marg_inter_est_patri":   {"MARG_PAT", "Margen Intermediación / Patrimonio", CategoryEarnings},
	"I32_Marg_inter_est_activ":   {"MARG_ACT", "Margen Intermediación / Activo", CategoryEarnings},
	"I34_Rend_cart_consu_x_venc": {"REND_CONS", "Rendimiento Cartera Consumo", CategoryEarnings},
	"I35_Rend_cart_inmob_x_venc": {"REND_INMOB", "Rendimiento Cartera Inmobiliaria", CategoryEarnings},
	"I36_Rend_cart_micro_x_venc": {"REND_MICRO", "Rendimiento Cartera Microcrédito", CategoryEarnings},
	"I37_Rend_cart_prod_x_venc":  {"REND_PROD", "Rendimiento Cartera Productivo", CategoryEarnings},
	"I40_Rend_cart_vivie_x_venc": {"REND_VIV", "Rendimiento Cartera Vivienda IP", CategoryEarnings},
	"I41_Rend_cart_educ_x_venc":  {"REND_EDU", "Rendimiento Cartera Educativo", CategoryEarnings},

	// L - Liquidity
	"I45_Fond_dis_sob_total_depo_cort_plz": {"LIQ", "Fondos Disponibles / Depósitos CP", CategoryLiquidity},

	// V - Equity vulnerability
	"I46_Carte_impro_descu_rela_patri_resul": {"VULN_PAT", "Cart. Improd. Descubierta / Patrimonio", CategoryVulnerability},
	"I47_Carte_impr_patri_dic":               {"CART_IMPR_PAT", "Cartera Improductiva / Patrimonio", CategoryVulnerability},
	"I48_FK":                                 {"FK", "FK", CategoryVulnerability},
	"I49_FI":                                 {"FI", "FI", CategoryVulnerability},
	"I50_Indi_capi_neto":                     {"CAP_NETO", "Índice Capitalización Neto", CategoryVulnerability},
}
