package telegram

const (
	msgWelcome = "✅ Bot iniciado!\n\n" +
		"📌 Envie o resultado do dia no formato questões/acertos, por exemplo 20/15.\n" +
		"📌 Use /ranking para ver o ranking de hoje."

	msgHelp = "ℹ️ Como funciona:\n\n" +
		"• Envie questões/acertos uma vez por dia, por exemplo 20/15.\n" +
		"• Reenviar no mesmo dia substitui o resultado anterior.\n" +
		"• Quem envia todos os dias aumenta a sequência; um dia sem envio zera a sequência.\n" +
		"• O ranking final sai todo dia à noite. Use /ranking para uma prévia."

	msgReportSaved = "📊 %s, seus dados foram salvos com sucesso!\n" +
		"🔥 Sequência: %d dia(s)\n" +
		"📚 Total: %d questões, %d acertos"

	msgInvalidReport = "⚠️ Acertos não podem passar do número de questões, e o limite é de 10000 questões por dia. Envie questões/acertos, por exemplo 20/15."
	msgInternalError = "❌ Não foi possível processar agora. Tente novamente em instantes."

	defaultDisplayName = "Participante"
)
