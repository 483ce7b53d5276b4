package normalize

import "github.com/imobcrm/erpsync/internal/domain"

// Lookup tables for the ERP's coded fields. Keys are the stringified codes.

var Sexes = map[string]string{
	"1": domain.SexMale,
	"2": domain.SexFemale,
	"3": domain.SexUndefined,
}

var PropertyTypes = map[string]string{
	"1":  "Casa",
	"2":  "Garagem",
	"3":  "Apartamento",
	"4":  "Chácara",
	"5":  "Apartamento duplex",
	"6":  "Sala comercial",
	"7":  "Sítio",
	"8":  "Cobertura",
	"9":  "Rancho",
	"10": "Casa comercial",
	"11": "Apartamento tipo kitnet",
	"12": "Área comum",
	"13": "Sobrado",
	"14": "Fazenda",
	"15": "Barracão",
	"16": "Loja",
	"17": "Edícula",
	"18": "Prédio",
	"19": "Casa assobradada",
	"20": "Conjunto",
	"21": "Outro",
	"22": "Casa em condomínio",
	"23": "Escritório",
	"24": "Galpão",
	"25": "Flat",
	"26": "Andar corporativo",
	"27": "Bangalô",
	"28": "Haras",
	"29": "Box/Garagem",
	"30": "Área",
}

var ContractTypes = map[string]string{
	"1": "Residencial",
	"2": "Não residencial",
	"3": "Comercial",
	"4": "Indústria",
	"5": "Temporada",
	"7": "Misto",
}

var Statuses = map[string]string{
	"0": "Não",
	"1": "Sim",
	"2": "Sim",
	"4": "Suspenso",
}

var Guarantees = map[string]string{
	"0": "Sem garantia",
	"1": "Fiador",
	"2": "Caução",
	"3": "Seguro fiança",
	"4": "Título de capitalização",
	"5": "Caucionante",
	"6": "Cessão fiduciária",
	"7": "Caução PJBank",
}

var GuaranteedRentModes = map[string]string{
	"":  "Não garantido",
	"1": "Garantir todo boleto",
	"2": "Garantir apenas aluguel",
	"3": "Garantir produtos marcados",
	"4": "Garantir apenas aluguel e IR",
}
