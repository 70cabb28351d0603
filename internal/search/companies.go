package search

// Company is one listed company in the directory.
type Company struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	Name   string `json:"name" yaml:"name"`
	Sector string `json:"sector" yaml:"sector"`
}

// Sector names used by the built-in catalogue.
const (
	SectorAutomobile   = "Automobile"
	SectorAviation     = "Aviation"
	SectorBanking      = "Banking"
	SectorCement       = "Cement"
	SectorChemicals    = "Chemicals"
	SectorConstruction = "Construction"
	SectorConsumer     = "Consumer Durables"
	SectorDiversified  = "Diversified"
	SectorEnergy       = "Oil & Gas"
	SectorFinance      = "Financial Services"
	SectorFMCG         = "FMCG"
	SectorHealthcare   = "Healthcare"
	SectorIT           = "Information Technology"
	SectorInfra        = "Infrastructure"
	SectorMetals       = "Metals & Mining"
	SectorPharma       = "Pharmaceuticals"
	SectorPower        = "Power"
	SectorRetail       = "Retail"
	SectorTelecom      = "Telecom"
)

// NSECompanies is the built-in catalogue of large NSE listings offered for
// quick selection.
var NSECompanies = []Company{
	{"RELIANCE.NS", "Reliance Industries Ltd", SectorEnergy},
	{"TCS.NS", "Tata Consultancy Services Ltd", SectorIT},
	{"HDFCBANK.NS", "HDFC Bank Ltd", SectorBanking},
	{"INFY.NS", "Infosys Ltd", SectorIT},
	{"ICICIBANK.NS", "ICICI Bank Ltd", SectorBanking},
	{"HINDUNILVR.NS", "Hindustan Unilever Ltd", SectorFMCG},
	{"SBIN.NS", "State Bank of India", SectorBanking},
	{"BHARTIARTL.NS", "Bharti Airtel Ltd", SectorTelecom},
	{"BAJFINANCE.NS", "Bajaj Finance Ltd", SectorFinance},
	{"KOTAKBANK.NS", "Kotak Mahindra Bank Ltd", SectorBanking},
	{"LT.NS", "Larsen & Toubro Ltd", SectorConstruction},
	{"HCLTECH.NS", "HCL Technologies Ltd", SectorIT},
	{"AXISBANK.NS", "Axis Bank Ltd", SectorBanking},
	{"MARUTI.NS", "Maruti Suzuki India Ltd", SectorAutomobile},
	{"ITC.NS", "ITC Ltd", SectorFMCG},
	{"ASIANPAINT.NS", "Asian Paints Ltd", SectorConsumer},
	{"WIPRO.NS", "Wipro Ltd", SectorIT},
	{"DMART.NS", "Avenue Supermarts Ltd", SectorRetail},
	{"ULTRACEMCO.NS", "UltraTech Cement Ltd", SectorCement},
	{"NESTLEIND.NS", "Nestle India Ltd", SectorFMCG},
	{"BAJAJFINSV.NS", "Bajaj Finserv Ltd", SectorFinance},
	{"M&M.NS", "Mahindra & Mahindra Ltd", SectorAutomobile},
	{"POWERGRID.NS", "Power Grid Corporation of India Ltd", SectorPower},
	{"TITAN.NS", "Titan Company Ltd", SectorConsumer},
	{"SUNPHARMA.NS", "Sun Pharmaceutical Industries Ltd", SectorPharma},
	{"NTPC.NS", "NTPC Ltd", SectorPower},
	{"TATAMOTORS.NS", "Tata Motors Ltd", SectorAutomobile},
	{"ONGC.NS", "Oil & Natural Gas Corporation Ltd", SectorEnergy},
	{"ADANIENT.NS", "Adani Enterprises Ltd", SectorDiversified},
	{"JSWSTEEL.NS", "JSW Steel Ltd", SectorMetals},
	{"TATASTEEL.NS", "Tata Steel Ltd", SectorMetals},
	{"COALINDIA.NS", "Coal India Ltd", SectorMetals},
	{"INDUSINDBK.NS", "IndusInd Bank Ltd", SectorBanking},
	{"HINDALCO.NS", "Hindalco Industries Ltd", SectorMetals},
	{"GRASIM.NS", "Grasim Industries Ltd", SectorCement},
	{"ADANIPORTS.NS", "Adani Ports and Special Economic Zone Ltd", SectorInfra},
	{"CIPLA.NS", "Cipla Ltd", SectorPharma},
	{"EICHERMOT.NS", "Eicher Motors Ltd", SectorAutomobile},
	{"TECHM.NS", "Tech Mahindra Ltd", SectorIT},
	{"BPCL.NS", "Bharat Petroleum Corporation Ltd", SectorEnergy},
	{"BRITANNIA.NS", "Britannia Industries Ltd", SectorFMCG},
	{"DIVISLAB.NS", "Divi's Laboratories Ltd", SectorPharma},
	{"HEROMOTOCO.NS", "Hero MotoCorp Ltd", SectorAutomobile},
	{"DRREDDY.NS", "Dr. Reddy's Laboratories Ltd", SectorPharma},
	{"APOLLOHOSP.NS", "Apollo Hospitals Enterprise Ltd", SectorHealthcare},
	{"UPL.NS", "UPL Ltd", SectorChemicals},
	{"BAJAJ-AUTO.NS", "Bajaj Auto Ltd", SectorAutomobile},
	{"SHREECEM.NS", "Shree Cement Ltd", SectorCement},
	{"INDIGO.NS", "InterGlobe Aviation Ltd", SectorAviation},
	{"TATACONSUM.NS", "Tata Consumer Products Ltd", SectorFMCG},
}
