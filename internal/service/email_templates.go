package service

import (
	"fmt"
	"strings"
)

func greeting(name string) string {
	if name == "" {
		return "Olá,"
	}
	return fmt.Sprintf("Olá, %s,", name)
}

func verifyEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Confirme seu e-mail no %s", appName)
	body := fmt.Sprintf(`%s

Confirme seu endereço de e-mail para ativar sua conta:
%s

O link expira em 24 horas.

Se você não criou uma conta, ignore este e-mail.

Equipe %s`, greeting(name), verifyURL, appName)

	return subject, body
}

func magicLinkEmailTemplate(magicURL, appName string) (string, string) {
	subject := fmt.Sprintf("Entrar no %s", appName)
	body := fmt.Sprintf(`Clique no link para entrar na sua conta:
%s

O link expira em 10 minutos e só pode ser usado uma vez.

Se você não pediu este acesso, ignore este e-mail.

Equipe %s`, magicURL, appName)

	return subject, body
}

func forgotPasswordEmailTemplate(signInURL, appName string) (string, string) {
	subject := fmt.Sprintf("Redefinir sua senha no %s", appName)
	body := fmt.Sprintf(`Recebemos um pedido para redefinir sua senha. Este link remove a senha atual e faz seu login:
%s

Depois de entrar, defina uma nova senha em Configurações.

O link expira em 10 minutos e só pode ser usado uma vez.

Se você não fez esse pedido, ignore este e-mail. Sua senha continua a mesma.

Equipe %s`, signInURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Boas-vindas ao %s!", appName)
	body := fmt.Sprintf(`%s

Sua conta está ativa. Cadastre seus primeiros leads e acompanhe o funil:
%s

Equipe %s`, greeting(name), dashboardURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Sua conta no %s foi excluída", appName)
	body := fmt.Sprintf(`%s

Sua conta foi excluída permanentemente do %s, junto com leads, interações, propostas e tarefas.

Se não foi você, entre em contato com o suporte. Não é possível recuperar a conta.

Equipe %s`, greeting(name), appName, appName)

	return subject, body
}

func digestEmailTemplate(name string, lines []string, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Hoje você precisa: %d tarefa(s) no %s", len(lines), appName)

	var b strings.Builder
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	body := fmt.Sprintf(`%s

Hoje você precisa:
%s
Abra o painel: %s

Equipe %s`, greeting(name), b.String(), dashboardURL, appName)

	return subject, body
}
